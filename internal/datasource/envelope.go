// Package datasource implements the four DataSource backends artifacts
// move through: a filesystem tree, a MongoDB document store, a
// read-only InfluxDB telemetry bucket, and a read-only peer Sunbeam
// instance reached over HTTP.
package datasource

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/sunbeam-telemetry/sunbeam/internal/pipeline/core"
)

// envelope is the self-describing wire form written by FilesystemStore
// and read by FilesystemStore and PeerStore; DocumentStore stores only
// the data part, as a dataEnvelope. It exists because
// core.Artifact.Data is an any: CBOR can round-trip concrete struct
// shapes but loses the distinction between "time series" and "opaque
// bytes" if asked to decode straight into an interface{}, so the
// envelope carries an explicit discriminator instead of relying on
// CBOR's generic map decoding.
type envelope struct {
	Origin      string
	Event       string
	Source      string
	Name        string
	FileType    string
	Description string
	Metadata    map[string]any

	DataKind   string
	TimeSeries *timeSeriesEnvelope `cbor:",omitempty"`
	Scalar     *float64            `cbor:",omitempty"`
	Raw        []byte              `cbor:",omitempty"`
}

type timeSeriesEnvelope struct {
	Timestamps     []time.Time
	Values         []float64
	Units          string
	SamplingPeriod time.Duration
	Description    string
}

const (
	dataKindNull       = "null"
	dataKindTimeSeries = "time_series"
	dataKindScalar     = "scalar"
	dataKindRaw        = "raw"
)

// encodeArtifact serializes an Artifact to CBOR bytes.
func encodeArtifact(a core.Artifact) ([]byte, error) {
	env := envelope{
		Origin:      a.CanonicalPath.Origin,
		Event:       a.CanonicalPath.Event,
		Source:      a.CanonicalPath.Source,
		Name:        a.CanonicalPath.Name,
		FileType:    string(a.FileType),
		Description: a.Description,
		Metadata:    a.Metadata,
	}

	switch v := a.Data.(type) {
	case nil:
		env.DataKind = dataKindNull
	case core.TimeSeries:
		env.DataKind = dataKindTimeSeries
		env.TimeSeries = &timeSeriesEnvelope{
			Timestamps:     v.Timestamps,
			Values:         v.Values,
			Units:          v.Units,
			SamplingPeriod: v.SamplingPeriod,
			Description:    v.Description,
		}
	case float64:
		env.DataKind = dataKindScalar
		scalar := v
		env.Scalar = &scalar
	case []byte:
		env.DataKind = dataKindRaw
		env.Raw = v
	default:
		return nil, core.NewDataError("envelope", "unsupported artifact data type for encoding")
	}

	return cbor.Marshal(env)
}

// dataEnvelope is the data-only counterpart of envelope, used by
// DocumentStore, which keeps file_type/description/metadata as
// top-level document fields per the document backend's external field
// layout and only needs the opaque data payload CBOR-encoded.
type dataEnvelope struct {
	DataKind   string
	TimeSeries *timeSeriesEnvelope `cbor:",omitempty"`
	Scalar     *float64            `cbor:",omitempty"`
	Raw        []byte              `cbor:",omitempty"`
}

// encodeArtifactData serializes just an artifact's data payload to CBOR
// bytes, omitting path and descriptive fields.
func encodeArtifactData(data any) ([]byte, error) {
	env := dataEnvelope{}
	switch v := data.(type) {
	case nil:
		env.DataKind = dataKindNull
	case core.TimeSeries:
		env.DataKind = dataKindTimeSeries
		env.TimeSeries = &timeSeriesEnvelope{
			Timestamps:     v.Timestamps,
			Values:         v.Values,
			Units:          v.Units,
			SamplingPeriod: v.SamplingPeriod,
			Description:    v.Description,
		}
	case float64:
		env.DataKind = dataKindScalar
		scalar := v
		env.Scalar = &scalar
	case []byte:
		env.DataKind = dataKindRaw
		env.Raw = v
	default:
		return nil, core.NewDataError("envelope", "unsupported artifact data type for encoding")
	}
	return cbor.Marshal(env)
}

// decodeArtifactData deserializes CBOR bytes produced by
// encodeArtifactData back into an artifact's data payload.
func decodeArtifactData(raw []byte) (any, error) {
	var env dataEnvelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return nil, core.NewDataError("envelope", "invalid artifact data encoding")
	}

	switch env.DataKind {
	case dataKindTimeSeries:
		if env.TimeSeries == nil {
			return nil, nil
		}
		return core.TimeSeries{
			Timestamps:     env.TimeSeries.Timestamps,
			Values:         env.TimeSeries.Values,
			Units:          env.TimeSeries.Units,
			SamplingPeriod: env.TimeSeries.SamplingPeriod,
			Description:    env.TimeSeries.Description,
		}, nil
	case dataKindScalar:
		if env.Scalar == nil {
			return nil, nil
		}
		return *env.Scalar, nil
	case dataKindRaw:
		return env.Raw, nil
	case dataKindNull, "":
		return nil, nil
	default:
		return nil, core.NewDataError("envelope", "unknown artifact data kind "+env.DataKind)
	}
}

// decodeArtifact deserializes CBOR bytes into an Artifact.
func decodeArtifact(raw []byte) (core.Artifact, error) {
	var env envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return core.Artifact{}, core.NewDataError("envelope", "invalid artifact encoding")
	}

	path := core.NewCanonicalPath(env.Origin, env.Event, env.Source, env.Name)
	var data any

	switch env.DataKind {
	case dataKindTimeSeries:
		if env.TimeSeries != nil {
			data = core.TimeSeries{
				Timestamps:     env.TimeSeries.Timestamps,
				Values:         env.TimeSeries.Values,
				Units:          env.TimeSeries.Units,
				SamplingPeriod: env.TimeSeries.SamplingPeriod,
				Description:    env.TimeSeries.Description,
			}
		}
	case dataKindScalar:
		if env.Scalar != nil {
			data = *env.Scalar
		}
	case dataKindRaw:
		data = env.Raw
	case dataKindNull, "":
		data = nil
	default:
		return core.Artifact{}, core.NewDataError("envelope", "unknown artifact data kind "+env.DataKind)
	}

	artifact := core.NewArtifact(path, core.ArtifactType(env.FileType), data)
	artifact.Description = env.Description
	if env.Metadata != nil {
		artifact.Metadata = env.Metadata
	}
	return artifact, nil
}
