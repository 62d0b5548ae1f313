package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/xliff"
)

// compressAbove is the serialized size from which inline-tag tables are
// stored compressed.
const compressAbove = 1024

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// encodeData serializes an inline-tag table, compressing large ones.
func encodeData(data map[string]string) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false, fmt.Errorf("marshalling data: %w", err)
	}
	if len(raw) < compressAbove {
		return raw, false, nil
	}
	return encoder.EncodeAll(raw, nil), true, nil
}

// decodeData reverses encodeData.
func decodeData(blob []byte, compressed bool) (map[string]string, error) {
	data := make(map[string]string)
	if len(blob) == 0 {
		return data, nil
	}
	if compressed {
		raw, err := decoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing data: %w", err)
		}
		blob = raw
	}
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, fmt.Errorf("unmarshaling data: %w", err)
	}
	return data, nil
}

// encodeContent serializes inline content as an XLIFF element. Empty
// content is the empty string.
func encodeContent(name string, c domain.Content) string {
	if c.IsEmpty() {
		return ""
	}
	return xliff.ContentXML(name, c)
}

func decodeContent(s string) (domain.Content, error) {
	return xliff.ParseContent(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
