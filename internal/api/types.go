package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ServiceInfo describes the service root endpoint.
type ServiceInfo struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description" yaml:"description"`
	Endpoints   map[string]string `json:"endpoints" yaml:"endpoints"`
}

// DependencyStatus mirrors one bootstrapped dependency.
type DependencyStatus struct {
	Name      string `json:"name" yaml:"name"`
	State     string `json:"state" yaml:"state"`
	Path      string `json:"path" yaml:"path"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
	Attempts  int    `json:"attempts" yaml:"attempts"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// ToolStatus captures availability of an external binary.
type ToolStatus struct {
	Name        string `json:"name" yaml:"name"`
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description" yaml:"description"`
	Optional    bool   `json:"optional" yaml:"optional"`
	Available   bool   `json:"available" yaml:"available"`
	Detail      string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Status is the /status response body.
type Status struct {
	ToolAvailable            bool               `json:"toolAvailable" yaml:"toolAvailable"`
	SupportedInputExtensions []string           `json:"supportedInputExtensions" yaml:"supportedInputExtensions"`
	SupportedAudioOutputs    []string           `json:"supportedAudioOutputs" yaml:"supportedAudioOutputs"`
	SupportedTextOutputs     []string           `json:"supportedTextOutputs" yaml:"supportedTextOutputs"`
	Environment              string             `json:"environment" yaml:"environment"`
	Engine                   string             `json:"engine" yaml:"engine"`
	Dependencies             []DependencyStatus `json:"dependencies" yaml:"dependencies"`
	Tools                    []ToolStatus       `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// Transcription is the /text response body.
type Transcription struct {
	FileName      string `json:"fileName" yaml:"fileName"`
	Transcription string `json:"transcription" yaml:"transcription"`
	WordCount     int    `json:"wordCount" yaml:"wordCount"`
	SegmentCount  int    `json:"segmentCount" yaml:"segmentCount"`
	Language      string `json:"language,omitempty" yaml:"language,omitempty"`
	ProcessedAt   string `json:"processedAt" yaml:"processedAt"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Error string `json:"error" yaml:"error"`
}

// HistoryEntry describes one recorded conversion.
type HistoryEntry struct {
	ID          string `json:"id" yaml:"id"`
	RequestID   string `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	Kind        string `json:"kind" yaml:"kind"`
	FileName    string `json:"fileName" yaml:"fileName"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Status      string `json:"status" yaml:"status"`
	FailureKind string `json:"failureKind,omitempty" yaml:"failureKind,omitempty"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
	WordCount   int    `json:"wordCount,omitempty" yaml:"wordCount,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	OutputBytes int64  `json:"outputBytes" yaml:"outputBytes"`
	DurationMS  int64  `json:"durationMs" yaml:"durationMs"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries" yaml:"entries"`
}
