package orchestrator

import (
	"fmt"
	"strings"

	"github.com/aescanero/lazymint/pkg/domain"
)

// Validator validates submission input
type Validator struct {
	maxImageBytes int64
}

// NewValidator creates a new submission validator. maxImageBytes <= 0 disables
// the size limit.
func NewValidator(maxImageBytes int64) *Validator {
	return &Validator{maxImageBytes: maxImageBytes}
}

// Validate validates a submission input
func (v *Validator) Validate(in domain.SubmissionInput) error {
	if len(in.Image) == 0 {
		return fmt.Errorf("image is required")
	}

	if v.maxImageBytes > 0 && int64(len(in.Image)) > v.maxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", v.maxImageBytes)
	}

	if err := v.validateFilename(in.Filename); err != nil {
		return err
	}

	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}

	return nil
}

// validateFilename rejects names the content store would treat as paths
func (v *Validator) validateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("filename is required")
	}

	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid filename: %q", name)
	}

	return nil
}
