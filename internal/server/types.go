package server

import (
	"buildboard/internal/domain"
	"buildboard/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	ProjectName string   `json:"project_name"`
	AppSpec     string   `json:"app_spec"`
	FeatureList []string `json:"feature_list"`
}

type createSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

type sessionJSON struct {
	ID                string   `json:"id"`
	ProjectName       string   `json:"project_name"`
	Status            string   `json:"status"`
	CurrentFeature    string   `json:"current_feature"`
	FeaturesCompleted int      `json:"features_completed"`
	FeaturesTotal     int      `json:"features_total"`
	AppSpec           string   `json:"app_spec"`
	FeatureList       []string `json:"feature_list"`
	CreatedAt         int64    `json:"created_at"`
	UpdatedAt         int64    `json:"updated_at"`
}

func sessionToJSON(s domain.Session) sessionJSON {
	return sessionJSON{
		ID:                s.ID,
		ProjectName:       s.ProjectName,
		Status:            string(s.Status),
		CurrentFeature:    s.CurrentFeature,
		FeaturesCompleted: s.FeaturesCompleted,
		FeaturesTotal:     s.FeaturesTotal,
		AppSpec:           s.AppSpec,
		FeatureList:       s.FeatureList,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

type messageJSON struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

func messageToJSON(m domain.ChatMessage) messageJSON {
	return messageJSON{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Response  string `json:"response"`
}

type runSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

type timeStartResponse struct {
	Success   bool  `json:"success"`
	Running   bool  `json:"running"`
	StartedAt int64 `json:"started_at"`
}

type timeStopResponse struct {
	Success bool    `json:"success"`
	Running bool    `json:"running"`
	Seconds int64   `json:"seconds"`
	Cost    float64 `json:"cost"`
}

type timeAggregatesJSON struct {
	TodaySeconds int64   `json:"today_seconds"`
	WeekSeconds  int64   `json:"week_seconds"`
	MonthSeconds int64   `json:"month_seconds"`
	TodayCost    float64 `json:"today_cost"`
	WeekCost     float64 `json:"week_cost"`
	MonthCost    float64 `json:"month_cost"`
	RatePerHour  float64 `json:"rate_per_hour"`
}

type timeStatusResponse struct {
	Running    bool               `json:"running"`
	StartedAt  int64              `json:"started_at"`
	Seconds    int64              `json:"seconds"`
	Aggregates timeAggregatesJSON `json:"aggregates"`
}

type imageMetaJSON struct {
	Key       string   `json:"key"`
	Title     string   `json:"title"`
	Alt       string   `json:"alt"`
	Tags      []string `json:"tags"`
	UpdatedAt int64    `json:"updated_at"`
}

type imageEntryJSON struct {
	Key      string         `json:"key"`
	Size     int64          `json:"size"`
	Uploaded int64          `json:"uploaded"`
	Metadata *imageMetaJSON `json:"metadata"`
}

type upsertMetadataRequest struct {
	Title *string  `json:"title"`
	Alt   *string  `json:"alt"`
	Tags  []string `json:"tags"`
}

func toCreateSessionParams(req createSessionRequest) services.CreateSessionParams {
	return services.CreateSessionParams{
		ProjectName: req.ProjectName,
		AppSpec:     req.AppSpec,
		FeatureList: req.FeatureList,
	}
}

func toUpsertMetadataParams(req upsertMetadataRequest) services.UpsertMetadataParams {
	return services.UpsertMetadataParams{
		Title: req.Title,
		Alt:   req.Alt,
		Tags:  req.Tags,
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

type initResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
