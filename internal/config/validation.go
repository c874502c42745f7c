package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateConfig validates the field constraints, then the rules that span
// sections.
func ValidateConfig(config *Config) error {
	if err := structValidator().Struct(config); err != nil {
		return formatValidationError(err)
	}
	if err := validateStorage(config); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validateChain(&config.Chain); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	if err := validateDeploy(&config.Deploy); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	if config.GRPC.Enabled {
		if config.GRPC.Address == "" {
			return errors.New("grpc.address is required when grpc is enabled")
		}
		if config.GRPC.Address == config.Server.Address() {
			return errors.New("grpc.address must differ from the JSON-RPC address")
		}
	}
	return nil
}

func validateStorage(config *Config) error {
	if config.IsPersistent() && strings.TrimSpace(config.Storage.Path) == "" {
		return fmt.Errorf("path is required for the %s backend", config.Storage.Backend)
	}
	// A memory chain restarts at genesis, so a durable index would keep rows
	// for blocks that no longer exist.
	if !config.IsPersistent() && config.HasIndex() && !isMemoryDSN(config.Index.DSN) {
		return fmt.Errorf("index %s requires a persistent storage backend", config.Index.Driver)
	}
	return nil
}

// isMemoryDSN reports whether a sqlite DSN names a database that lives only
// as long as its connection.
func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func validateChain(chain *ChainConfig) error {
	seen := make(map[string]bool, len(chain.Signers))
	for _, name := range chain.Signers {
		if seen[name] {
			return fmt.Errorf("duplicate signer %q", name)
		}
		seen[name] = true
	}
	if len(chain.Signers) > 0 && len(chain.Signers) < 4 {
		return fmt.Errorf("need at least 4 signers for buyer, seller, inspector and lender, have %d", len(chain.Signers))
	}
	if chain.BlockTime > 0 && chain.AutoMine {
		return errors.New("block_time requires automine = false")
	}
	return nil
}

func validateDeploy(deploy *DeployConfig) error {
	amount, ok := new(big.Int).SetString(deploy.LockedAmount, 10)
	if !ok || amount.Sign() < 0 {
		return fmt.Errorf("invalid locked_amount %q", deploy.LockedAmount)
	}
	return nil
}

// formatValidationError renders field errors as section.key messages.
func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace is Config.Section.Field
		ns := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (value %v)", ns, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (value %v)", ns, fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
