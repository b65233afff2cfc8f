package storage

import (
	"encoding/json"

	"buildboard/internal/domain"
)

// sessionModelToDomain converts an AgentSessionModel (GORM) to domain.Session
func sessionModelToDomain(m AgentSessionModel) domain.Session {
	return domain.Session{
		AppSpec:           m.AppSpec,
		CreatedAt:         m.CreatedAt,
		CurrentFeature:    m.CurrentFeature,
		FeatureList:       nil, // Not persisted here, enriched from the blob store
		FeaturesCompleted: m.FeaturesCompleted,
		FeaturesTotal:     m.FeaturesTotal,
		ID:                m.ID,
		ProjectName:       m.ProjectName,
		Status:            domain.SessionStatus(m.Status),
		UpdatedAt:         m.UpdatedAt,
	}
}

// domainToSessionModel converts a domain.Session to AgentSessionModel (GORM)
func domainToSessionModel(s domain.Session) AgentSessionModel {
	return AgentSessionModel{
		AppSpec:           s.AppSpec,
		CreatedAt:         s.CreatedAt,
		CurrentFeature:    s.CurrentFeature,
		FeaturesCompleted: s.FeaturesCompleted,
		FeaturesTotal:     s.FeaturesTotal,
		ID:                s.ID,
		ProjectName:       s.ProjectName,
		Status:            string(s.Status),
		UpdatedAt:         s.UpdatedAt,
	}
}

func messageModelToDomain(m ChatMessageModel) domain.ChatMessage {
	return domain.ChatMessage{
		Content:   m.Content,
		ID:        m.ID,
		Role:      domain.MessageRole(m.Role),
		Seq:       m.Seq,
		SessionID: m.SessionID,
		Timestamp: m.Timestamp,
	}
}

func domainToMessageModel(m domain.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		Content:   m.Content,
		ID:        m.ID,
		Role:      string(m.Role),
		SessionID: m.SessionID,
		Timestamp: m.Timestamp,
	}
}

func timeEntryModelToDomain(m TimeEntryModel) domain.TimeEntry {
	return domain.TimeEntry{
		CostUSD:   m.CostUSD,
		EndedAt:   m.EndedAt,
		ID:        m.ID,
		Note:      m.Note,
		Seconds:   m.Seconds,
		StartedAt: m.StartedAt,
	}
}

func domainToTimeEntryModel(e domain.TimeEntry) TimeEntryModel {
	return TimeEntryModel{
		CostUSD:   e.CostUSD,
		EndedAt:   e.EndedAt,
		ID:        e.ID,
		Note:      e.Note,
		Seconds:   e.Seconds,
		StartedAt: e.StartedAt,
	}
}

// imageMetaModelToDomain deserializes the stored tags JSON; corrupt tags
// degrade to an empty list rather than failing the read.
func imageMetaModelToDomain(m ImageMetaModel) domain.ImageMeta {
	var tags []string
	if err := json.Unmarshal([]byte(m.Tags), &tags); err != nil {
		tags = []string{}
	}
	return domain.ImageMeta{
		Alt:       m.Alt,
		Key:       m.Key,
		Tags:      tags,
		Title:     m.Title,
		UpdatedAt: m.UpdatedAt,
	}
}

func domainToImageMetaModel(meta domain.ImageMeta) (ImageMetaModel, error) {
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return ImageMetaModel{}, err
	}
	return ImageMetaModel{
		Alt:       meta.Alt,
		Key:       meta.Key,
		Tags:      string(encoded),
		Title:     meta.Title,
		UpdatedAt: meta.UpdatedAt,
	}, nil
}
