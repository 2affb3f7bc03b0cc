package intra

import (
	"encoding/json"
	"fmt"

	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/domain/shared"
)

// Mapper converts intranet DTOs into domain records.
// Validation of required fields is left to the domain.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// EventRecordFromDTO maps a planning entry.
func (m *Mapper) EventRecordFromDTO(dto *PlanningEventDTO) attendance.EventRecord {
	rec := attendance.EventRecord{
		Year:        dto.ScolarYear.Value,
		Module:      dto.CodeModule.Value,
		Instance:    dto.CodeInstance.Value,
		Activity:    dto.CodeActi.Value,
		Event:       dto.CodeEvent.Value,
		Title:       dto.ActiTitle.Value,
		ModuleTitle: dto.TitleModule.Value,
		Start:       dto.Start.Value,
		End:         dto.End.Value,
	}

	if dto.IsRdv.Valid {
		// Only non-appointment activities carry tokens.
		eligible := dto.IsRdv.Value == "0" || dto.IsRdv.Value == "false"
		rec.TokenEligible = &eligible
	}

	return rec
}

// StudentRecordFromDTO maps a roster entry.
func (m *Mapper) StudentRecordFromDTO(dto *RegisteredStudentDTO) attendance.StudentRecord {
	rec := attendance.StudentRecord{
		Login: dto.Login.Value,
		Name:  dto.Title.Value,
	}
	if dto.Present.Valid {
		present := dto.Present.Value
		rec.Present = &present
	}
	return rec
}

// EventRecordsFromJSON decodes and maps raw planning entries.
func (m *Mapper) EventRecordsFromJSON(raw []json.RawMessage) ([]attendance.EventRecord, error) {
	records := make([]attendance.EventRecord, 0, len(raw))
	for i, item := range raw {
		var dto PlanningEventDTO
		if err := json.Unmarshal(item, &dto); err != nil {
			return nil, fmt.Errorf("planning entry %d: %w: %w", i, shared.ErrIntraMalformedResponse, err)
		}
		records = append(records, m.EventRecordFromDTO(&dto))
	}
	return records, nil
}

// StudentRecordsFromJSON decodes and maps raw roster entries.
func (m *Mapper) StudentRecordsFromJSON(raw []json.RawMessage) ([]attendance.StudentRecord, error) {
	records := make([]attendance.StudentRecord, 0, len(raw))
	for i, item := range raw {
		var dto RegisteredStudentDTO
		if err := json.Unmarshal(item, &dto); err != nil {
			return nil, fmt.Errorf("roster entry %d: %w: %w", i, shared.ErrIntraMalformedResponse, err)
		}
		records = append(records, m.StudentRecordFromDTO(&dto))
	}
	return records, nil
}
