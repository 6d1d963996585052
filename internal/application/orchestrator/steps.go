package orchestrator

import (
	"context"
	"fmt"

	"github.com/aescanero/lazymint/pkg/domain"
)

const (
	StepAuthorize        = "authorize"
	StepStoreImage       = "store_image"
	StepBuildMetadata    = "build_metadata"
	StepStoreMetadata    = "store_metadata"
	StepBuildMintRequest = "build_mint_request"
	StepRegisterLazyMint = "register_lazy_mint"
)

// attemptState carries each step's output to the next step
type attemptState struct {
	input     domain.SubmissionInput
	requester string
	chain     string

	imageAddr       domain.ContentAddress
	metadata        domain.NFTMetadata
	encodedMetadata []byte
	metadataAddr    domain.ContentAddress
	mintRequest     domain.MintRequest
	result          *domain.MintResult
}

// step is one stage of an attempt. kind tags errors the step returns.
type step struct {
	name string
	kind domain.ErrorKind
	run  func(ctx context.Context, st *attemptState) error
}

// steps returns the ordered pipeline for an attempt
func (m *Manager) steps() []step {
	return []step{
		{
			name: StepAuthorize,
			kind: domain.ErrorKindAuthorization,
			run: func(ctx context.Context, st *attemptState) error {
				return m.authorizer.Authorize(ctx, st.requester, st.chain)
			},
		},
		{
			name: StepStoreImage,
			kind: domain.ErrorKindStorage,
			run: func(ctx context.Context, st *attemptState) error {
				addr, err := m.contentStore.Put(ctx, st.input.Image, st.input.Filename)
				if err != nil {
					return err
				}
				if addr == "" {
					return fmt.Errorf("content store returned an empty address")
				}
				st.imageAddr = addr
				return nil
			},
		},
		{
			name: StepBuildMetadata,
			kind: domain.ErrorKindStorage,
			run: func(ctx context.Context, st *attemptState) error {
				st.metadata = domain.NewNFTMetadata(st.input.Name, st.input.Description, st.imageAddr)
				encoded, err := st.metadata.Encode()
				if err != nil {
					return err
				}
				st.encodedMetadata = encoded
				return nil
			},
		},
		{
			name: StepStoreMetadata,
			kind: domain.ErrorKindStorage,
			run: func(ctx context.Context, st *attemptState) error {
				addr, err := m.contentStore.Put(ctx, st.encodedMetadata, domain.MetadataFilename)
				if err != nil {
					return err
				}
				if addr == "" {
					return fmt.Errorf("content store returned an empty address")
				}
				st.metadataAddr = addr
				return nil
			},
		},
		{
			name: StepBuildMintRequest,
			kind: domain.ErrorKindMarketplace,
			run: func(ctx context.Context, st *attemptState) error {
				st.mintRequest = domain.NewMintRequest(st.chain, st.requester, st.metadataAddr)
				return nil
			},
		},
		{
			name: StepRegisterLazyMint,
			kind: domain.ErrorKindMarketplace,
			run: func(ctx context.Context, st *attemptState) error {
				res, err := m.marketplace.RegisterLazyMint(ctx, st.mintRequest)
				if err != nil {
					return err
				}
				if res == nil {
					return fmt.Errorf("marketplace returned no result")
				}
				st.result = res
				return nil
			},
		},
	}
}
