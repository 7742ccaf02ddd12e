package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/student-records-api/internal/models"
)

func sampleGrade() models.Grade {
	recorded := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	return models.Grade{
		ID:         7,
		StudentID:  "S10001",
		CourseCode: "CS101",
		GradeValue: 91,
		Semester:   "Fall 2024",
		GradeDate:  datatypes.Date(recorded),
		CreatedAt:  recorded.Add(time.Hour),
		UpdatedAt:  recorded.Add(2 * time.Hour),
	}
}

func TestGradeMapperRoundTrip(t *testing.T) {
	records := []models.Grade{
		sampleGrade(),
		{StudentID: "S1", CourseCode: "MA201", GradeValue: 0, Semester: "Spring 2025"},
		{ID: 99, StudentID: "S2", CourseCode: "PH100", GradeValue: 100, Semester: "Summer 2025", GradeDate: datatypes.Date(time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC))},
	}

	for _, record := range records {
		require.Equal(t, record, GradeToInternal(GradeToExternal(record)))
	}
}

func TestGradeToExternalRenamesFields(t *testing.T) {
	external := GradeToExternal(sampleGrade())

	payload, err := json.Marshal(external)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	require.Equal(t, float64(7), body["grade_id"])
	require.Equal(t, float64(91), body["grade"])
	require.Equal(t, "2024-12-01", body["date"])
	require.NotContains(t, body, "grade_value")
	require.NotContains(t, body, "grade_date")
	require.NotContains(t, body, "id")
}

func TestGradeColumnsRenamesPartialUpdates(t *testing.T) {
	date := NewDate(2025, time.May, 2)
	columns, err := GradeColumns(map[string]interface{}{
		"grade":    80,
		"semester": "Spring 2025",
		"date":     date,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"grade_value": 80,
		"semester":    "Spring 2025",
		"grade_date":  datatypes.Date(date.Time()),
	}, columns)

	_, err = GradeColumns(map[string]interface{}{"grade_value": 80})
	require.Error(t, err)
}

func TestGradeFieldNamesAreBijective(t *testing.T) {
	for field, column := range gradeColumns {
		require.Equal(t, field, GradeExternalField(column))
	}
	require.Equal(t, "grade", GradeExternalField("grade_value"))
	require.Equal(t, "date", GradeExternalField("grade_date"))
	require.Equal(t, "unknown_column", GradeExternalField("unknown_column"))
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-01"`), &d))
	require.Equal(t, "2024-12-01", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"2024-12-01T10:00:00Z"`), &d))
	require.Equal(t, "2024-12-01", d.String())

	require.Error(t, json.Unmarshal([]byte(`"12/01/2024"`), &d))
	require.Error(t, json.Unmarshal([]byte(`20241201`), &d))
}
