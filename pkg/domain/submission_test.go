package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNFTMetadataReferencesImageAddress(t *testing.T) {
	md := NewNFTMetadata("X", "Y", "addr1")

	assert.Equal(t, NFTMetadata{Name: "X", Description: "Y", Image: "/ipfs/addr1"}, md)
}

func TestNFTMetadataEncodeIsStable(t *testing.T) {
	md := NewNFTMetadata("X", "Y", "addr1")

	first, err := md.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"X","description":"Y","image":"/ipfs/addr1"}`, string(first))

	for i := 0; i < 5; i++ {
		again, err := md.Encode()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNFTMetadataEncodeKeepsMarkup(t *testing.T) {
	md := NewNFTMetadata("<b>cat</b> & dog", "line\nbreak", "bafy")

	encoded, err := md.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"<b>cat</b> & dog","description":"line\nbreak","image":"/ipfs/bafy"}`, string(encoded))

	var decoded NFTMetadata
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, md, decoded)
}

func TestNewMintRequestFixedFields(t *testing.T) {
	for _, user := range []string{"", "0xabc", "0x52908400098527886E0F7030069857D2E4169EE7"} {
		req := NewMintRequest(DefaultChain, user, "addr2")

		assert.Equal(t, "rinkeby", req.Chain)
		assert.Equal(t, user, req.UserAddress)
		assert.Equal(t, "ERC721", req.TokenType)
		assert.Equal(t, "ipfs/addr2", req.TokenURI)
		assert.Equal(t, 0, req.RoyaltiesAmount)
	}
}

func TestMintRequestWireFormat(t *testing.T) {
	req := NewMintRequest(DefaultChain, "0xabc", "addr2")

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chain":"rinkeby","userAddress":"0xabc","tokenType":"ERC721","tokenUri":"ipfs/addr2","royaltiesAmount":0}`, string(data))
}

func TestReferencePrefixes(t *testing.T) {
	assert.Equal(t, "/ipfs/abc", ImageReference("abc"))
	assert.Equal(t, "ipfs/abc", TokenURI("abc"))
}

func TestSubmissionInputClone(t *testing.T) {
	in := SubmissionInput{Image: []byte{1, 2, 3}, Filename: "a.png", Name: "n"}
	out := in.Clone()
	out.Image[0] = 9

	assert.Equal(t, byte(1), in.Image[0])
	assert.Equal(t, in.Filename, out.Filename)
}

func TestDisplayLink(t *testing.T) {
	link := DisplayLink("rinkeby.rarible.com", &MintResult{TokenAddress: "0xABC", TokenID: "7"})
	assert.Equal(t, "https://rinkeby.rarible.com/token/flow/0xABC:7?tab=details", link)

	assert.Empty(t, DisplayLink("rinkeby.rarible.com", nil))
	assert.Empty(t, DisplayLink("rinkeby.rarible.com", &MintResult{TokenAddress: "0xABC"}))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, SubmissionStatusIdle.CanTransition(SubmissionStatusPending))
	assert.True(t, SubmissionStatusPending.CanTransition(SubmissionStatusSuccess))
	assert.True(t, SubmissionStatusPending.CanTransition(SubmissionStatusError))
	assert.True(t, SubmissionStatusError.CanTransition(SubmissionStatusPending))
	assert.False(t, SubmissionStatusIdle.CanTransition(SubmissionStatusSuccess))
	assert.False(t, SubmissionStatusSuccess.CanTransition(SubmissionStatusError))
	assert.False(t, SubmissionStatusPending.CanTransition(SubmissionStatusIdle))
}

func TestStatusCopyIsDeep(t *testing.T) {
	st := &Status{
		SessionID: "s",
		Status:    SubmissionStatusSuccess,
		Result:    &SubmissionResult{Payload: &MintResult{TokenID: "1", Raw: json.RawMessage(`{}`)}},
	}
	cp := st.Copy()
	cp.Result.Payload.TokenID = "2"

	assert.Equal(t, "1", st.Result.Payload.TokenID)
}

func TestSubmissionErrorMatchesKind(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("attempt: %w", NewSubmissionError(ErrorKindStorage, "store_image", cause))

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrMarketplace)

	res := FailureResult(err)
	assert.Equal(t, "dial tcp: refused", res.Message)
	assert.Equal(t, ErrorKindStorage, res.ErrorKind)
}

func TestFailureResultFallsBackToGenericMessage(t *testing.T) {
	res := FailureResult(NewSubmissionError(ErrorKindMarketplace, "register_lazy_mint", errors.New("")))
	assert.Equal(t, GenericFailureMessage, res.Message)
	assert.Equal(t, ErrorKindMarketplace, res.ErrorKind)

	assert.Equal(t, GenericFailureMessage, FailureResult(nil).Message)
}
