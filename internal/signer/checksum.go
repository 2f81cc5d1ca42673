package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// toolDigests pins the SHA-256 of the released tool per platform.
var toolDigests = map[string]string{
	"windows": "f5733aa845430b04e843d69cc9ca075a722d27e4e555f1448a98d46c6b853143",
	"linux":   "5961ea3ca5db48e62251730908dc55920037905063806327e33c094d6b4406c8",
	"darwin":  "26ef18c2d78d54b89daaca751ac7fca48ddf29636aef232f873526d140e30a68",
}

// ToolName returns the tool's file name for goos.
func ToolName(goos string) (string, error) {
	switch goos {
	case "windows":
		return "mktx.exe", nil
	case "linux":
		return "mktx", nil
	case "darwin":
		return "mktxmac", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
}

// FileSHA256 returns the hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrToolMissing, path)
		}
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyDigest checks the file at path against want (hex, any case).
func VerifyDigest(path, want string) error {
	got, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%w: %s has %s", ErrChecksum, path, got)
	}
	return nil
}

// VerifyChecksum checks the tool at path against the digest pinned for goos.
func VerifyChecksum(path, goos string) error {
	want, ok := toolDigests[goos]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	return VerifyDigest(path, want)
}
