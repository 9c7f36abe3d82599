package probe

import (
	"NetSpike/internal/model"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// RecordToStruct converts a record to its mirrored protobuf form.
func RecordToStruct(rec *model.PacketRecord) (*structpb.Struct, error) {
	ts := timestamppb.New(rec.Timestamp)
	return structpb.NewStruct(map[string]interface{}{
		"timestamp": map[string]interface{}{
			"seconds": float64(ts.GetSeconds()),
			"nanos":   float64(ts.GetNanos()),
		},
		"time_label": rec.TimeLabel,
		"summary":    rec.Summary,
		"details":    rec.Details,
		"hex_dump":   rec.HexDump,
		"app":        rec.App,
		"source":     rec.Source,
		"dest":       rec.Dest,
		"protocol":   rec.Protocol,
		"length":     float64(rec.Length),
	})
}

// RecordFromStruct reverses RecordToStruct.
func RecordFromStruct(s *structpb.Struct) (*model.PacketRecord, error) {
	fields := s.GetFields()
	tsFields := fields["timestamp"].GetStructValue().GetFields()
	if tsFields == nil {
		return nil, fmt.Errorf("record has no timestamp")
	}
	ts := &timestamppb.Timestamp{
		Seconds: int64(tsFields["seconds"].GetNumberValue()),
		Nanos:   int32(tsFields["nanos"].GetNumberValue()),
	}
	if err := ts.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid record timestamp: %w", err)
	}

	str := func(name string) string { return fields[name].GetStringValue() }
	return &model.PacketRecord{
		Timestamp: ts.AsTime(),
		TimeLabel: str("time_label"),
		Summary:   str("summary"),
		Details:   str("details"),
		HexDump:   str("hex_dump"),
		App:       str("app"),
		Source:    str("source"),
		Dest:      str("dest"),
		Protocol:  str("protocol"),
		Length:    int(fields["length"].GetNumberValue()),
	}, nil
}

// MarshalRecord encodes rec for the wire.
func MarshalRecord(rec *model.PacketRecord) ([]byte, error) {
	s, err := RecordToStruct(rec)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// UnmarshalRecord decodes a record received from the wire.
func UnmarshalRecord(data []byte) (*model.PacketRecord, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return RecordFromStruct(&s)
}
