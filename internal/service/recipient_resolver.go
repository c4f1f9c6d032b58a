package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-scheduler/internal/models"
)

const principalRole = "principal"

type directoryReader interface {
	FindFacultyByRole(ctx context.Context, roleName string) (string, error)
	FindBranchHead(ctx context.Context, branchID string) (*string, error)
}

// RecipientResolver finds the faculty who receive generator notifications.
// Lookups never fail: storage errors are logged and reported as absences.
type RecipientResolver struct {
	directory directoryReader
	logger    *zap.Logger
}

// NewRecipientResolver constructs the resolver.
func NewRecipientResolver(directory directoryReader, logger *zap.Logger) *RecipientResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipientResolver{directory: directory, logger: logger}
}

// Principal returns the institution's principal.
func (r *RecipientResolver) Principal(ctx context.Context) models.Lookup[string] {
	if r.directory == nil {
		return models.Missing[string]("directory unavailable")
	}
	id, err := r.directory.FindFacultyByRole(ctx, principalRole)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Missing[string]("no faculty holds the principal role")
	case err != nil:
		r.logger.Warn("principal lookup failed", zap.Error(err))
		return models.Missing[string]("principal lookup failed: " + err.Error())
	case id == "":
		return models.Missing[string]("principal has no faculty id")
	}
	return models.Found(id)
}

// BranchHead returns the head of branchID when a branch context is set.
func (r *RecipientResolver) BranchHead(ctx context.Context, branchID *string) models.Lookup[string] {
	if branchID == nil || *branchID == "" {
		return models.Missing[string]("no branch context")
	}
	if r.directory == nil {
		return models.Missing[string]("directory unavailable")
	}
	head, err := r.directory.FindBranchHead(ctx, *branchID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Missing[string]("branch " + *branchID + " not found")
	case err != nil:
		r.logger.Warn("branch head lookup failed", zap.String("branch_id", *branchID), zap.Error(err))
		return models.Missing[string]("branch head lookup failed: " + err.Error())
	case head == nil:
		return models.Missing[string]("branch " + *branchID + " has no head")
	}
	return models.Found(*head)
}

// SubjectInCharge prefers the offering's in-charge and falls back to the criteria's.
func SubjectInCharge(offering *models.SubjectOffering, criteria *models.SubjectCriteria) models.Lookup[string] {
	if offering != nil && offering.SubjectInChargeID != nil && *offering.SubjectInChargeID != "" {
		return models.Found(*offering.SubjectInChargeID)
	}
	if criteria != nil && criteria.SubjectInChargeID != nil && *criteria.SubjectInChargeID != "" {
		return models.Found(*criteria.SubjectInChargeID)
	}
	return models.Missing[string]("subject has no in-charge faculty")
}

// Recipients returns the deduplicated in-charge, principal and branch head ids
// in that order, plus the reasons for any that were absent.
func (r *RecipientResolver) Recipients(ctx context.Context, sic models.Lookup[string], branchID *string) ([]string, []string) {
	lookups := []models.Lookup[string]{sic, r.Principal(ctx), r.BranchHead(ctx, branchID)}

	seen := make(map[string]struct{}, len(lookups))
	var (
		ids     []string
		reasons []string
	)
	for _, l := range lookups {
		if !l.Found {
			reasons = append(reasons, l.Reason)
			continue
		}
		if _, dup := seen[l.Value]; dup {
			continue
		}
		seen[l.Value] = struct{}{}
		ids = append(ids, l.Value)
	}
	return ids, reasons
}
