package ledger

// ABI fragments limited to the functions this service consumes. Full contract
// ABIs live with the contracts repo; keeping only the consumed surface here
// makes the coupling explicit.

const verifierABI = `[
  {"type":"function","name":"getAgency","stateMutability":"view","inputs":[{"name":"region","type":"bytes32"}],"outputs":[{"name":"agency","type":"address"},{"name":"fee","type":"uint256"}]},
  {"type":"function","name":"hasPendingRequest","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"hasPendingReappraisal","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"isVerified","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getAppraisedPrice","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"requestVerification","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"requestReappraisal","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"verifyAndAppraise","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"priceUSD","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"updateAppraisal","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"newPriceUSD","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setAgency","stateMutability":"nonpayable","inputs":[{"name":"region","type":"bytes32"},{"name":"agency","type":"address"},{"name":"fee","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"changeAgencyFee","stateMutability":"nonpayable","inputs":[{"name":"region","type":"bytes32"},{"name":"newFee","type":"uint256"}],"outputs":[]}
]`

const lendingABI = `[
  {"type":"function","name":"loans","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"borrower","type":"address"},{"name":"principalUSDT","type":"uint256"},{"name":"amountOwedUSDT","type":"uint256"},{"name":"dueTimestamp","type":"uint256"},{"name":"tokenId","type":"uint256"},{"name":"status","type":"uint8"}]},
  {"type":"function","name":"btcPriceUSDT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"issueLoan","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"amountUSDT","type":"uint256"},{"name":"periodSeconds","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"repayLoan","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"inBTC","type":"bool"}],"outputs":[]}
]`

const erc20ABI = `[
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const nftABI = `[
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]}
]`
