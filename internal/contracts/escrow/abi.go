package escrow

import "github.com/LeJamon/goEscrow/internal/core/vm"

// Kind is the contract kind name Escrow deploys under.
const Kind = "Escrow"

// ABIJSON is the input ABI used to dispatch and bind Escrow.
const ABIJSON = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"nftAddress","type":"address"},{"name":"seller","type":"address"},{"name":"inspector","type":"address"},{"name":"lender","type":"address"}]},

  {"type":"function","name":"nftAddress","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"seller","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"inspector","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"lender","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"isListed","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"purchasePrice","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"escrowAmount","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"buyer","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"inspectionPassed","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approval","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"deposited","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},

  {"type":"function","name":"list","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"purchasePrice","type":"uint256"},{"name":"escrowAmount","type":"uint256"},{"name":"buyer","type":"address"}],"outputs":[]},
  {"type":"function","name":"depositEarnest","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"fund","stateMutability":"payable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"updateInspectionStatus","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"passed","type":"bool"}],"outputs":[]},
  {"type":"function","name":"approveSale","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"finalizeSale","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"cancelSale","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"onERC721Received","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]},

  {"type":"event","name":"Listed","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"purchasePrice","type":"uint256","indexed":false},{"name":"escrowAmount","type":"uint256","indexed":false}]},
  {"type":"event","name":"EarnestDeposited","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"InspectionUpdated","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"passed","type":"bool","indexed":false}]},
  {"type":"event","name":"SaleApproved","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"account","type":"address","indexed":true}]},
  {"type":"event","name":"SaleFinalized","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"SaleCancelled","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"refundTo","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Funded","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"from","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// ABI is the parsed Escrow ABI.
var ABI = vm.MustParseABI(ABIJSON)

// Revert reasons.
const (
	ReasonOnlySeller          = "Only seller can call this method"
	ReasonOnlyBuyer           = "Only buyer can call this method"
	ReasonOnlyInspector       = "Only inspector can call this method"
	ReasonOnlyParty           = "Only buyer, seller or inspector can call this method"
	ReasonNotListed           = "Property is not listed"
	ReasonAlreadyListed       = "Property already listed"
	ReasonInvalidBuyer        = "Invalid buyer"
	ReasonInsufficientEarnest = "Insufficient earnest deposit"
	ReasonInspectionFailed    = "Inspection not passed"
	ReasonBuyerApproval       = "Sale not approved by buyer"
	ReasonSellerApproval      = "Sale not approved by seller"
	ReasonLenderApproval      = "Sale not approved by lender"
	ReasonInsufficientFunds   = "Insufficient funds"
	ReasonUnsupportedToken    = "Unsupported token"
)
