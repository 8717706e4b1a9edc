package blobrpc

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers are part of the wire contract between blobd and its clients.

type PutRequest struct {
	Collection string // 1
	Key        string // 2
	Data       []byte // 3
}

func (m *PutRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Collection)
	b = appendString(b, 2, m.Key)
	return appendBytes(b, 3, m.Data)
}

func (m *PutRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Collection)
	case 2:
		return consumeString(typ, b, &m.Key)
	case 3:
		return consumeBytes(typ, b, &m.Data)
	}
	return skipField(num, typ, b)
}

type PutResponse struct {
	Location string // 1
}

func (m *PutResponse) appendWire(b []byte) []byte { return appendString(b, 1, m.Location) }

func (m *PutResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &m.Location)
	}
	return skipField(num, typ, b)
}

type GetRequest struct {
	Collection string // 1
	Key        string // 2
}

func (m *GetRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Collection)
	return appendString(b, 2, m.Key)
}

func (m *GetRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Collection)
	case 2:
		return consumeString(typ, b, &m.Key)
	}
	return skipField(num, typ, b)
}

type GetResponse struct {
	Data []byte // 1
}

func (m *GetResponse) appendWire(b []byte) []byte { return appendBytes(b, 1, m.Data) }

func (m *GetResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeBytes(typ, b, &m.Data)
	}
	return skipField(num, typ, b)
}

type ListRequest struct {
	Collection string // 1
}

func (m *ListRequest) appendWire(b []byte) []byte { return appendString(b, 1, m.Collection) }

func (m *ListRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &m.Collection)
	}
	return skipField(num, typ, b)
}

type ListResponse struct {
	Keys []string // 1, repeated
}

func (m *ListResponse) appendWire(b []byte) []byte {
	for _, k := range m.Keys {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, k)
	}
	return b
}

func (m *ListResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num != 1 {
		return skipField(num, typ, b)
	}
	var k string
	n, err := consumeString(typ, b, &k)
	if err != nil {
		return 0, err
	}
	m.Keys = append(m.Keys, k)
	return n, nil
}

type DeleteRequest struct {
	Collection string // 1
	Key        string // 2
}

func (m *DeleteRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Collection)
	return appendString(b, 2, m.Key)
}

func (m *DeleteRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Collection)
	case 2:
		return consumeString(typ, b, &m.Key)
	}
	return skipField(num, typ, b)
}

type DeleteResponse struct {
	Deleted bool // 1
}

func (m *DeleteResponse) appendWire(b []byte) []byte { return appendBool(b, 1, m.Deleted) }

func (m *DeleteResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeBool(typ, b, &m.Deleted)
	}
	return skipField(num, typ, b)
}

type PingRequest struct{}

func (m *PingRequest) appendWire(b []byte) []byte { return b }

func (m *PingRequest) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return skipField(num, typ, b)
}

type PingResponse struct {
	Backend string // 1
}

func (m *PingResponse) appendWire(b []byte) []byte { return appendString(b, 1, m.Backend) }

func (m *PingResponse) consumeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return consumeString(typ, b, &m.Backend)
	}
	return skipField(num, typ, b)
}
