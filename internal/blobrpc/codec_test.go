package blobrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "blobpb", c.Name())
}

func TestCodec_RoundTrip(t *testing.T) {
	c := wireCodec{}
	tests := []struct {
		name string
		in   any
		out  any
	}{
		{"put", &PutRequest{Collection: "encryption/general", Key: "key-alice.json", Data: []byte{0, 1, 2}}, &PutRequest{}},
		{"put response", &PutResponse{Location: "s3://bucket/encryption/general/key-alice.json"}, &PutResponse{}},
		{"get", &GetRequest{Collection: "encryption/general", Key: "key-bob.json"}, &GetRequest{}},
		{"get response", &GetResponse{Data: []byte(`{"id":"x"}`)}, &GetResponse{}},
		{"list", &ListRequest{Collection: "encryption/general"}, &ListRequest{}},
		{"list response", &ListResponse{Keys: []string{"key-alice.json", "key-bob.json"}}, &ListResponse{}},
		{"delete", &DeleteRequest{Collection: "c", Key: "k"}, &DeleteRequest{}},
		{"delete response", &DeleteResponse{Deleted: true}, &DeleteResponse{}},
		{"ping response", &PingResponse{Backend: "sqlite"}, &PingResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := c.Marshal(tt.in)
			require.NoError(t, err)
			require.NoError(t, c.Unmarshal(b, tt.out))
			assert.Equal(t, tt.in, tt.out)
		})
	}
}

// Single-field messages share their encoding with the protobuf wrapper types.
func TestCodec_ProtobufWireFormat(t *testing.T) {
	c := wireCodec{}
	tests := []struct {
		name string
		ours any
		std  proto.Message
	}{
		{"string", &PingResponse{Backend: "badger"}, wrapperspb.String("badger")},
		{"bytes", &GetResponse{Data: []byte{9, 8, 7}}, wrapperspb.Bytes([]byte{9, 8, 7})},
		{"bool", &DeleteResponse{Deleted: true}, wrapperspb.Bool(true)},
		{"empty", &PingRequest{}, &emptypb.Empty{}},
		{"zero values omitted", &DeleteResponse{}, wrapperspb.Bool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Marshal(tt.ours)
			require.NoError(t, err)
			want, err := proto.Marshal(tt.std)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	// and decode what the protobuf runtime produces
	b, err := proto.Marshal(wrapperspb.String("memory"))
	require.NoError(t, err)
	var ping PingResponse
	require.NoError(t, c.Unmarshal(b, &ping))
	assert.Equal(t, "memory", ping.Backend)
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "encryption/general")

	var req ListRequest
	require.NoError(t, wireCodec{}.Unmarshal(b, &req))
	assert.Equal(t, "encryption/general", req.Collection)
}

func TestCodec_Errors(t *testing.T) {
	c := wireCodec{}

	_, err := c.Marshal(struct{}{})
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(nil, &struct{}{}))

	// truncated length-delimited field
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = append(b, 5, 'a')
	assert.Error(t, c.Unmarshal(b, &GetRequest{}))

	// wrong wire type for a string field
	b = protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	assert.Error(t, c.Unmarshal(b, &GetRequest{}))
}

func TestCodec_DataIsCopied(t *testing.T) {
	c := wireCodec{}
	b, err := c.Marshal(&GetResponse{Data: []byte("payload")})
	require.NoError(t, err)

	var resp GetResponse
	require.NoError(t, c.Unmarshal(b, &resp))
	for i := range b {
		b[i] = 0
	}
	assert.Equal(t, []byte("payload"), resp.Data)
}
