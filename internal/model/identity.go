package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Kind distinguishes the bundled recognition models from custom ones.
type Kind int

const (
	Official Kind = iota
	Custom
)

// SHA-256 digests of the two bundled recognition models.
var officialDigests = map[string]struct{}{
	"33b5cd351ee94e73a6bf8fa18c415ed8b819b3ffd342e267c30d8ad8334e34e8": {},
	"b8f2ad9cbc1f2e3922a6cb9459e30824e7e2467f3fb4fd61420640e34ea0bf68": {},
}

// Identify hashes the model file contents. Anything other than the bundled
// models is Custom.
func Identify(modelBytes []byte) Kind {
	sum := sha256.Sum256(modelBytes)
	if _, ok := officialDigests[hex.EncodeToString(sum[:])]; ok {
		return Official
	}
	return Custom
}

// IdentifyFile reads a model file and identifies it.
func IdentifyFile(path string) (Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Custom, fmt.Errorf("failed to read model: %w", err)
	}
	return Identify(data), nil
}

func (k Kind) String() string {
	if k == Official {
		return "official"
	}
	return "diy"
}

// Normalization returns the input scaling the model was trained with.
func (k Kind) Normalization() tensor.Normalization {
	if k == Official {
		return tensor.NormalizeOfficial
	}
	return tensor.NormalizeCustom
}
