package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// MetadataFilename is the logical filename metadata documents are stored under.
	MetadataFilename = "metadata.json"

	// DefaultChain is the network lazy-mint requests are registered on.
	DefaultChain = "rinkeby"

	// TokenTypeERC721 is the only token standard the service mints.
	TokenTypeERC721 = "ERC721"

	imageRefPrefix    = "/ipfs/"
	tokenURIRefPrefix = "ipfs/"
)

// SubmissionInput is the raw form input for one submission.
type SubmissionInput struct {
	Image       []byte `json:"-"`
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Clone returns a copy that does not share the image buffer.
func (in SubmissionInput) Clone() SubmissionInput {
	out := in
	out.Image = append([]byte(nil), in.Image...)
	return out
}

// ContentAddress is the opaque handle a content store returns for stored bytes.
type ContentAddress string

func (a ContentAddress) String() string { return string(a) }

// NFTMetadata is the metadata document stored alongside the image.
//
// Field order is the encoding order; do not reorder.
type NFTMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// NewNFTMetadata builds metadata whose image reference points at imageAddr.
func NewNFTMetadata(name, description string, imageAddr ContentAddress) NFTMetadata {
	return NFTMetadata{
		Name:        name,
		Description: description,
		Image:       ImageReference(imageAddr),
	}
}

// Encode returns the canonical encoding of the metadata: compact JSON with keys
// in declaration order, no HTML escaping and no trailing newline.
func (m NFTMetadata) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ImageReference formats the reference stored in NFTMetadata.Image.
func ImageReference(addr ContentAddress) string {
	return imageRefPrefix + string(addr)
}

// TokenURI formats the metadata reference sent to the marketplace. Unlike
// ImageReference it carries no leading slash.
func TokenURI(addr ContentAddress) string {
	return tokenURIRefPrefix + string(addr)
}

// MintRequest is the lazy-mint registration sent to the marketplace.
type MintRequest struct {
	Chain           string `json:"chain"`
	UserAddress     string `json:"userAddress"`
	TokenType       string `json:"tokenType"`
	TokenURI        string `json:"tokenUri"`
	RoyaltiesAmount int    `json:"royaltiesAmount"`
}

// NewMintRequest builds the request for metadata stored at metadataAddr.
// Token type and royalties are fixed.
func NewMintRequest(chain, userAddress string, metadataAddr ContentAddress) MintRequest {
	return MintRequest{
		Chain:           chain,
		UserAddress:     userAddress,
		TokenType:       TokenTypeERC721,
		TokenURI:        TokenURI(metadataAddr),
		RoyaltiesAmount: 0,
	}
}

// MintResult is the marketplace response to a successful registration.
type MintResult struct {
	TokenAddress string          `json:"tokenAddress"`
	TokenID      string          `json:"tokenId"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}
