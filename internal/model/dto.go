package model

import (
	"time"

	"DevHabit/internal/shaping"
)

const DateLayout = "2006-01-02"

type HabitDTO struct {
	ID              string
	Name            string
	Description     *string
	Type            HabitType
	Frequency       Frequency
	Target          Target
	Status          HabitStatus
	IsArchived      bool
	EndDate         *string
	Milestone       *Milestone
	CreatedAtUTC    time.Time
	UpdatedAtUTC    *time.Time
	LastCompletedAt *time.Time
	Tags            []string
}

func (h Habit) ToDTO() HabitDTO {
	dto := HabitDTO{
		ID:              h.ID,
		Name:            h.Name,
		Description:     h.Description,
		Type:            h.Type,
		Frequency:       h.Frequency,
		Target:          h.Target,
		Status:          h.Status,
		IsArchived:      h.IsArchived,
		Milestone:       h.Milestone,
		CreatedAtUTC:    h.CreatedAtUTC,
		UpdatedAtUTC:    h.UpdatedAtUTC,
		LastCompletedAt: h.LastCompletedAt,
		Tags:            h.Tags,
	}
	if h.EndDate != nil {
		d := h.EndDate.Format(DateLayout)
		dto.EndDate = &d
	}
	return dto
}

type TagDTO struct {
	ID           string     `json:"id" xml:"id"`
	Name         string     `json:"name" xml:"name"`
	Description  *string    `json:"description" xml:"description"`
	CreatedAtUTC time.Time  `json:"createdAtUtc" xml:"createdAtUtc"`
	UpdatedAtUTC *time.Time `json:"updatedAtUtc" xml:"updatedAtUtc"`
}

func (t Tag) ToDTO() TagDTO {
	return TagDTO{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		CreatedAtUTC: t.CreatedAtUTC,
		UpdatedAtUTC: t.UpdatedAtUTC,
	}
}

type UserDTO struct {
	ID           string     `json:"id" xml:"id"`
	Email        string     `json:"email" xml:"email"`
	Name         string     `json:"name" xml:"name"`
	CreatedAtUTC time.Time  `json:"createdAtUtc" xml:"createdAtUtc"`
	UpdatedAtUTC *time.Time `json:"updatedAtUtc" xml:"updatedAtUtc"`
}

func (u User) ToDTO() UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		CreatedAtUTC: u.CreatedAtUTC,
		UpdatedAtUTC: u.UpdatedAtUTC,
	}
}

// TagShape is derived from TagDTO's json tags.
var TagShape = shaping.FromStruct[TagDTO]()

var (
	habitShapeV1         = habitShape(1, false)
	habitShapeV2         = habitShape(2, false)
	habitWithTagsShapeV1 = habitShape(1, true)
	habitWithTagsShapeV2 = habitShape(2, true)
)

// HabitShape returns the field table for an API version. Version 2 names the
// timestamps createdAt/updatedAt; the detail view adds tags.
func HabitShape(version int, withTags bool) *shaping.Shape[HabitDTO] {
	switch {
	case version >= 2 && withTags:
		return habitWithTagsShapeV2
	case version >= 2:
		return habitShapeV2
	case withTags:
		return habitWithTagsShapeV1
	default:
		return habitShapeV1
	}
}

func habitShape(version int, withTags bool) *shaping.Shape[HabitDTO] {
	created, updated := "createdAtUtc", "updatedAtUtc"
	if version >= 2 {
		created, updated = "createdAt", "updatedAt"
	}
	fields := []shaping.Field[HabitDTO]{
		{Name: "id", Get: func(h HabitDTO) any { return h.ID }},
		{Name: "name", Get: func(h HabitDTO) any { return h.Name }},
		{Name: "description", Get: func(h HabitDTO) any { return h.Description }},
		{Name: "type", Get: func(h HabitDTO) any { return h.Type }},
		{Name: "frequency", Get: func(h HabitDTO) any { return h.Frequency }},
		{Name: "target", Get: func(h HabitDTO) any { return h.Target }},
		{Name: "status", Get: func(h HabitDTO) any { return h.Status }},
		{Name: "isArchived", Get: func(h HabitDTO) any { return h.IsArchived }},
		{Name: "endDate", Get: func(h HabitDTO) any { return h.EndDate }},
		{Name: "milestone", Get: func(h HabitDTO) any { return h.Milestone }},
		{Name: created, Get: func(h HabitDTO) any { return h.CreatedAtUTC }},
		{Name: updated, Get: func(h HabitDTO) any { return h.UpdatedAtUTC }},
		{Name: "lastCompletedAt", Get: func(h HabitDTO) any { return h.LastCompletedAt }},
	}
	if withTags {
		fields = append(fields, shaping.Field[HabitDTO]{Name: "tags", Get: func(h HabitDTO) any {
			if h.Tags == nil {
				return []string{}
			}
			return h.Tags
		}})
	}
	return shaping.NewShape(fields...)
}
