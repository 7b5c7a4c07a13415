package forestshield

import "time"

// RegionStatus is the server-owned lifecycle status of a monitored region.
type RegionStatus string

const (
	StatusActive     RegionStatus = "ACTIVE"
	StatusPaused     RegionStatus = "PAUSED"
	StatusMonitoring RegionStatus = "MONITORING"
)

// Region is a circular area monitored for deforestation.
type Region struct {
	ID                          string       `json:"id" yaml:"id"`
	Name                        string       `json:"name" yaml:"name"`
	Description                 string       `json:"description" yaml:"description"`
	Latitude                    float64      `json:"latitude" yaml:"latitude"`
	Longitude                   float64      `json:"longitude" yaml:"longitude"`
	RadiusKm                    float64      `json:"radiusKm" yaml:"radius_km"`
	CloudCoverThreshold         int          `json:"cloudCoverThreshold" yaml:"cloud_cover_threshold"`
	Status                      RegionStatus `json:"status" yaml:"status"`
	LastDeforestationPercentage *float64     `json:"lastDeforestationPercentage,omitempty" yaml:"last_deforestation_percentage,omitempty"`
	LastAnalysis                *time.Time   `json:"lastAnalysis,omitempty" yaml:"last_analysis,omitempty"`
	CreatedAt                   time.Time    `json:"createdAt" yaml:"created_at"`
}

// CreateRegionDto is the body for POST /dashboard/regions.
type CreateRegionDto struct {
	Name                string  `json:"name"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Description         string  `json:"description"`
	RadiusKm            float64 `json:"radiusKm"`
	CloudCoverThreshold int     `json:"cloudCoverThreshold"`
}

// UpdateRegionDto is the partial body for PUT /dashboard/regions/{id}.
// Geometry and status cannot be changed after creation.
type UpdateRegionDto struct {
	Name                *string  `json:"name,omitempty"`
	Description         *string  `json:"description,omitempty"`
	RadiusKm            *float64 `json:"radiusKm,omitempty"`
	CloudCoverThreshold *int     `json:"cloudCoverThreshold,omitempty"`
}

// RegionFilter narrows GET /dashboard/regions.
type RegionFilter struct {
	Status RegionStatus
}

// AlertLevel is the severity of an alert.
type AlertLevel string

const (
	AlertLow      AlertLevel = "LOW"
	AlertModerate AlertLevel = "MODERATE"
	AlertHigh     AlertLevel = "HIGH"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is a deforestation alert raised by the backend.
type Alert struct {
	ID                      string     `json:"id" yaml:"id"`
	RegionID                string     `json:"regionId" yaml:"region_id"`
	RegionName              string     `json:"regionName,omitempty" yaml:"region_name,omitempty"`
	Level                   AlertLevel `json:"level" yaml:"level"`
	Message                 string     `json:"message" yaml:"message"`
	DeforestationPercentage float64    `json:"deforestationPercentage" yaml:"deforestation_percentage"`
	Latitude                float64    `json:"latitude" yaml:"latitude"`
	Longitude               float64    `json:"longitude" yaml:"longitude"`
	Acknowledged            bool       `json:"acknowledged" yaml:"acknowledged"`
	Timestamp               time.Time  `json:"timestamp" yaml:"timestamp"`
}

// AlertFilter narrows GET /dashboard/alerts.
type AlertFilter struct {
	Level        AlertLevel
	Acknowledged *bool
	Limit        int
}

// AlertSubscription is an email subscribed to alert notifications.
type AlertSubscription struct {
	Email        string    `json:"email" yaml:"email"`
	SubscribedAt time.Time `json:"subscribedAt" yaml:"subscribed_at"`
	Status       string    `json:"status,omitempty" yaml:"status,omitempty"`
}

// JobStatus is the state of a backend analysis job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// ActiveJob is an analysis job tracked by the backend.
type ActiveJob struct {
	ID        string     `json:"id" yaml:"id"`
	Type      string     `json:"type" yaml:"type"`
	Status    JobStatus  `json:"status" yaml:"status"`
	RegionID  string     `json:"regionId,omitempty" yaml:"region_id,omitempty"`
	Progress  float64    `json:"progress" yaml:"progress"`
	StartTime time.Time  `json:"startTime" yaml:"start_time"`
	EndTime   *time.Time `json:"endTime,omitempty" yaml:"end_time,omitempty"`
}

// JobFilter narrows GET /dashboard/jobs.
type JobFilter struct {
	Status JobStatus
}

// HeatmapQuery is the bounding box for GET /dashboard/heatmap.
type HeatmapQuery struct {
	North float64
	South float64
	East  float64
	West  float64
	Days  int
}

// HeatmapPoint is one weighted cell of the deforestation heatmap.
type HeatmapPoint struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// HeatmapResponse is the response from GET /dashboard/heatmap.
type HeatmapResponse struct {
	Data   []HeatmapPoint `json:"data" yaml:"data"`
	Bounds struct {
		North float64 `json:"north" yaml:"north"`
		South float64 `json:"south" yaml:"south"`
		East  float64 `json:"east" yaml:"east"`
		West  float64 `json:"west" yaml:"west"`
	} `json:"bounds" yaml:"bounds"`
	Period string `json:"period,omitempty" yaml:"period,omitempty"`
}

// SearchParams are the satellite search parameters of an analysis.
type SearchParams struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	CloudCover int     `json:"cloudCover"`
}

// AnalysisRequest is the body for POST /sentinel/step-functions/trigger.
type AnalysisRequest struct {
	SearchParams SearchParams `json:"searchParams"`
}

// AnalysisResponse is the response from the analysis trigger.
type AnalysisResponse struct {
	Message      string `json:"message" yaml:"message"`
	JobID        string `json:"jobId,omitempty" yaml:"job_id,omitempty"`
	ExecutionArn string `json:"executionArn,omitempty" yaml:"execution_arn,omitempty"`
}

// DashboardStats is the response from GET /dashboard/stats.
type DashboardStats struct {
	TotalRegions         int     `json:"totalRegions" yaml:"total_regions"`
	ActiveRegions        int     `json:"activeRegions" yaml:"active_regions"`
	TotalAlerts          int     `json:"totalAlerts" yaml:"total_alerts"`
	UnacknowledgedAlerts int     `json:"unacknowledgedAlerts" yaml:"unacknowledged_alerts"`
	AverageDeforestation float64 `json:"averageDeforestation" yaml:"average_deforestation"`
	ImagesProcessed      int     `json:"imagesProcessed" yaml:"images_processed"`
	ActiveJobs           int     `json:"activeJobs" yaml:"active_jobs"`
}

// ServiceMetric describes one backend cloud service.
type ServiceMetric struct {
	Name        string  `json:"name" yaml:"name"`
	Status      string  `json:"status" yaml:"status"`
	Invocations int     `json:"invocations" yaml:"invocations"`
	Errors      int     `json:"errors" yaml:"errors"`
	AvgDuration float64 `json:"avgDuration" yaml:"avg_duration"`
}

// LogEntry is one backend log line.
type LogEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Level     string    `json:"level" yaml:"level"`
	Service   string    `json:"service" yaml:"service"`
	Message   string    `json:"message" yaml:"message"`
}

// LogQuery narrows GET /dashboard/aws/logs.
type LogQuery struct {
	Service string
	Level   string
	Limit   int
}

// StepFunctionExecution is one orchestrated analysis execution.
type StepFunctionExecution struct {
	ExecutionArn string     `json:"executionArn" yaml:"execution_arn"`
	Name         string     `json:"name" yaml:"name"`
	Status       string     `json:"status" yaml:"status"`
	StartDate    time.Time  `json:"startDate" yaml:"start_date"`
	StopDate     *time.Time `json:"stopDate,omitempty" yaml:"stop_date,omitempty"`
}

// ServiceCost is the spend attributed to one service.
type ServiceCost struct {
	Service string  `json:"service" yaml:"service"`
	Amount  float64 `json:"amount" yaml:"amount"`
}

// CostReport is the response from GET /dashboard/aws/costs.
type CostReport struct {
	Total     float64       `json:"total" yaml:"total"`
	Currency  string        `json:"currency" yaml:"currency"`
	Period    string        `json:"period" yaml:"period"`
	Breakdown []ServiceCost `json:"breakdown" yaml:"breakdown"`
}

// ComponentHealth is the health of one backend component.
type ComponentHealth struct {
	Name      string `json:"name" yaml:"name"`
	Status    string `json:"status" yaml:"status"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	LatencyMs int    `json:"latencyMs,omitempty" yaml:"latency_ms,omitempty"`
}

// SystemHealth is the response from GET /dashboard/health.
type SystemHealth struct {
	Status     string            `json:"status" yaml:"status"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	Components []ComponentHealth `json:"components" yaml:"components"`
}

// ActivityItem is one entry of the recent-activity feed.
type ActivityItem struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Status    string    `json:"status" yaml:"status"`
	Message   string    `json:"message" yaml:"message"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ClusterCentroid is one k-means cluster produced by an analysis.
type ClusterCentroid struct {
	Cluster    int     `json:"cluster" yaml:"cluster"`
	NDVI       float64 `json:"ndvi" yaml:"ndvi"`
	PixelCount int     `json:"pixelCount" yaml:"pixel_count"`
	Label      string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// RegionVisualization is a rendered analysis artifact for a region.
type RegionVisualization struct {
	ID        string            `json:"id" yaml:"id"`
	RegionID  string            `json:"regionId" yaml:"region_id"`
	ImageURL  string            `json:"imageUrl" yaml:"image_url"`
	Type      string            `json:"type" yaml:"type"`
	MeanNDVI  float64           `json:"meanNdvi" yaml:"mean_ndvi"`
	Clusters  []ClusterCentroid `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	CreatedAt time.Time         `json:"createdAt" yaml:"created_at"`
}
