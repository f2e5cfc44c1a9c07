package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrAlreadyVerified is returned when the explorer already holds the source of a contract
	ErrAlreadyVerified = errors.New("already verified")

	// ErrMissingAPIKey is returned when a verification run has no explorer API key
	ErrMissingAPIKey = errors.New("ETHERSCAN_API_KEY is not set")

	// ErrAdminMismatch is returned when a proxy is not administered by the resolved proxy admin
	ErrAdminMismatch = errors.New("proxy admin mismatch")

	// ErrPredecessorNotDone is returned when the predecessor operation has not been executed
	ErrPredecessorNotDone = errors.New("predecessor operation is not done")

	// ErrNoSigner is returned when a deployment is needed but no key is configured
	ErrNoSigner = errors.New("no signer configured (set deployerPvtKey or MNEMONIC)")

	// ErrArtifactNotFound is returned when a contract has no compiled artifact
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrNetworkRequired is returned when a command needs a network and none was given
	ErrNetworkRequired = errors.New("network is required (use --network)")

	// ErrInvalidParameters is returned when a parameters record fails validation
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrDeploymentDeclined is returned when the user declines an implementation deployment
	ErrDeploymentDeclined = errors.New("deployment declined")
)

// IsAlreadyVerified reports whether err means the contract is already verified.
// Explorers and forge word this differently, so the message is matched
// case-insensitively as well.
func IsAlreadyVerified(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyVerified) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already verified")
}

// VerificationError carries the explorer or forge output of a failed verification
type VerificationError struct {
	Contract string
	Address  string
	Output   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification of %s at %s failed: %s", e.Contract, e.Address, e.Output)
}

// ArtifactNotFoundErr names the missing contract and close matches
type ArtifactNotFoundErr struct {
	Name        string
	Suggestions []string
}

func (e ArtifactNotFoundErr) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("%s: %s", ErrArtifactNotFound, e.Name)
	}
	return fmt.Sprintf("%s: %s (did you mean: %s?)", ErrArtifactNotFound, e.Name, strings.Join(e.Suggestions, ", "))
}

func (e ArtifactNotFoundErr) Unwrap() error {
	return ErrArtifactNotFound
}
