package jobspec

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"github.com/google/uuid"
)

// Generator produces a complete stream job spec from a stream description.
// If externalJobID is uuid.Nil a fresh identifier is minted; otherwise the
// supplied one is used unchanged.
type Generator interface {
	GenerateJobSpec(ssc StreamSpecConfig, externalJobID uuid.UUID) (StreamJobSpec, error)
}

// NewIDFunc mints external job identifiers. It must be safe for concurrent
// use and must not repeat values across calls.
type NewIDFunc func() uuid.UUID

// ErrUnsupportedStreamType is returned when no generation strategy is
// registered for a stream type.
var ErrUnsupportedStreamType = errors.New("unsupported stream type")

// Registry maps each stream type to its generation strategy.
type Registry struct {
	generators map[StreamType]Generator
}

// NewRegistry builds a registry over the supported stream types. newID may be
// nil, in which case random identifiers are minted.
func NewRegistry(newID NewIDFunc) *Registry {
	if newID == nil {
		newID = uuid.New
	}
	quote := &quoteGenerator{newID: newID}
	return &Registry{
		generators: map[StreamType]Generator{
			StreamTypeQuote:  quote,
			StreamTypeMedian: &medianGenerator{quote: quote},
		},
	}
}

// Generator resolves the strategy for a stream type.
func (r *Registry) Generator(streamType StreamType) (Generator, error) {
	g, ok := r.generators[streamType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStreamType, streamType)
	}
	return g, nil
}

const jobNameSeparator = " | "

// Every bridge of a stream receives the same request payload, rendered once
// from the stream's EA request parameters.
var reqDataTemplate = template.Must(template.New("reqData").Parse(
	`{"data":{"endpoint":"{{.Endpoint}}","from":"{{.From}}","to":"{{.To}}"}}`))

func renderRequestData(params EARequestParams) (string, error) {
	var buf bytes.Buffer
	if err := reqDataTemplate.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render request data: %w", err)
	}
	return buf.String(), nil
}

type quoteGenerator struct {
	newID NewIDFunc
}

func (g *quoteGenerator) GenerateJobSpec(ssc StreamSpecConfig, externalJobID uuid.UUID) (StreamJobSpec, error) {
	if externalJobID == uuid.Nil {
		externalJobID = g.newID()
	}

	reqData, err := renderRequestData(ssc.EARequestParams)
	if err != nil {
		return StreamJobSpec{}, err
	}

	datasources := make([]Datasource, 0, len(ssc.APIs))
	for _, api := range ssc.APIs {
		datasources = append(datasources, Datasource{
			BridgeName: api,
			ReqData:    reqData,
		})
	}

	spec := StreamJobSpec{
		BaseJobSpec: BaseJobSpec{
			Name:          fmt.Sprintf("%s%s%d", ssc.Name, jobNameSeparator, ssc.StreamID),
			Type:          JobTypeStream,
			SchemaVersion: schemaVersion,
			ExternalJobID: externalJobID,
		},
		StreamID: ssc.StreamID,
	}

	if err := spec.SetObservationSource(BuildObservationSource(datasources), ssc.ReportFields); err != nil {
		return StreamJobSpec{}, err
	}

	return spec, nil
}

// medianGenerator currently shares the quote pipeline. The separate strategy
// is the seam for when median streams diverge.
type medianGenerator struct {
	quote *quoteGenerator
}

func (g *medianGenerator) GenerateJobSpec(ssc StreamSpecConfig, externalJobID uuid.UUID) (StreamJobSpec, error) {
	return g.quote.GenerateJobSpec(ssc, externalJobID)
}
