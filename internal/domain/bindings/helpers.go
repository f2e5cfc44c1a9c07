package bindings

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI returns the parsed TimelockController ABI.
// Used by the call decoder, which needs method lookup by selector.
func (timelockController *TimelockController) ABI() *abi.ABI {
	return &timelockController.abi
}

// ABI returns the parsed ProxyAdmin ABI.
func (proxyAdmin *ProxyAdmin) ABI() *abi.ABI {
	return &proxyAdmin.abi
}

// MethodSelector returns the 4-byte selector of a TimelockController method
func (timelockController *TimelockController) MethodSelector(name string) ([4]byte, error) {
	return selectorOf(&timelockController.abi, name)
}

// MethodSelector returns the 4-byte selector of a ProxyAdmin method
func (proxyAdmin *ProxyAdmin) MethodSelector(name string) ([4]byte, error) {
	return selectorOf(&proxyAdmin.abi, name)
}

func selectorOf(parsed *abi.ABI, name string) ([4]byte, error) {
	var sel [4]byte
	method, exists := parsed.Methods[name]
	if !exists {
		return sel, fmt.Errorf("method %s not found", name)
	}
	copy(sel[:], method.ID)
	return sel, nil
}
