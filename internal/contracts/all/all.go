// Package all registers every contract kind the node can deploy.
package all

import (
	_ "github.com/LeJamon/goEscrow/internal/contracts/escrow"
	_ "github.com/LeJamon/goEscrow/internal/contracts/realestate"
)
