package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/student-records-api/internal/apperrors"
)

// updatedFields lists the keys of a partial update in a stable order for audit metadata.
func updatedFields(updates map[string]interface{}) []string {
	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func gradeKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// rejectKeyChange fails when an update payload names a key other than the one being updated.
// Repeating the current key is allowed so full-document PUTs round-trip.
func rejectKeyChange(field, current string, requested *string) error {
	if requested == nil || strings.TrimSpace(*requested) == current {
		return nil
	}
	return apperrors.Validation(field+" cannot be changed", apperrors.FieldError{Field: field, Message: "cannot be changed"})
}
