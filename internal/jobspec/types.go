package jobspec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// StreamType selects the generation strategy for a stream.
type StreamType string

const (
	StreamTypeQuote  StreamType = "quote"
	StreamTypeMedian StreamType = "median"
)

// EARequestParams are the external-adapter request parameters shared by every
// datasource of a stream.
type EARequestParams struct {
	Endpoint string `json:"endpoint"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// StreamSpecConfig describes one data stream to onboard. APIs must contain at
// least one bridge name; the fault tolerance of the generated job is derived
// from its length.
type StreamSpecConfig struct {
	Name            string          `json:"name"`
	StreamID        uint32          `json:"stream_id"`
	APIs            []string        `json:"apis"`
	EARequestParams EARequestParams `json:"ea_request_params"`
	ReportFields    any             `json:"report_fields,omitempty"`
}

const (
	// JobTypeStream identifies a generated spec as a stream job.
	JobTypeStream = "stream"

	schemaVersion = 1
)

// BaseJobSpec is the header shared by all generated jobs.
type BaseJobSpec struct {
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	SchemaVersion int       `json:"schemaVersion"`
	ExternalJobID uuid.UUID `json:"externalJobID"`
}

// StreamJobSpec is the complete configuration a node runs to serve one stream.
// ObservationSource is set through SetObservationSource.
type StreamJobSpec struct {
	BaseJobSpec
	StreamID          uint32 `json:"streamID"`
	ObservationSource string `json:"observationSource"`
}

// Datasource is one upstream bridge query of an observation source.
type Datasource struct {
	BridgeName string `json:"bridgeName"`
	ReqData    string `json:"reqData"`
}

// BaseObservationSource describes how a node combines datasource queries into
// one reported value. Datasource order is meaningful and preserved.
type BaseObservationSource struct {
	Datasources   []Datasource `json:"datasources"`
	AllowedFaults int          `json:"allowedFaults"`
}

// BuildObservationSource derives the observation source from the datasource
// list. The job stays reliable until all but one datasource have failed.
func BuildObservationSource(datasources []Datasource) BaseObservationSource {
	return BaseObservationSource{
		Datasources:   datasources,
		AllowedFaults: len(datasources) - 1,
	}
}

// ErrObservationSourceSerialization reports a failure to serialize the
// observation source into the spec's embedded program.
var ErrObservationSourceSerialization = errors.New("cannot serialize observation source")

type observationSourceConfig struct {
	BaseObservationSource
	ReportFields any `json:"reportFields,omitempty"`
}

// SetObservationSource serializes the observation source and the stream's
// report fields into the spec's embedded program. On error the spec must not
// be used.
func (s *StreamJobSpec) SetObservationSource(source BaseObservationSource, reportFields any) error {
	rendered, err := json.MarshalIndent(observationSourceConfig{
		BaseObservationSource: source,
		ReportFields:          reportFields,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrObservationSourceSerialization, err)
	}
	s.ObservationSource = string(rendered)
	return nil
}
