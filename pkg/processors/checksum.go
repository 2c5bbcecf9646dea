// File: pkg/processors/checksum.go

package processors

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/ruslano69/coffeedash/pkg/core/table"
)

// uint64ToBytes конвертирует uint64 в байтовый массив (big-endian).
func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// ComputeChecksum вычисляет xxh3 хеш данных и возвращает hex-encoded строку.
func ComputeChecksum(data []byte) string {
	h := xxh3.Hash(data)
	return hex.EncodeToString(uint64ToBytes(h))
}

// ValidateChecksum проверяет соответствие данных ожидаемому хешу.
func ValidateChecksum(data []byte, expectedHash string) error {
	actual := ComputeChecksum(data)
	if actual != expectedHash {
		return fmt.Errorf(
			"checksum validation failed: expected %s, got %s",
			expectedHash, actual,
		)
	}
	return nil
}

// TableChecksum вычисляет xxh3 хеш схемы и всех строк таблицы.
// Используется как версия набора данных (ETag, ключи кеша).
func TableChecksum(t *table.Table) string {
	h := xxh3.New()
	sep := []byte{0x1f}
	end := []byte{0x1e}
	for _, f := range t.Schema.Fields {
		h.Write([]byte(f.Name))
		h.Write(sep)
	}
	h.Write(end)
	for _, row := range t.Rows {
		for _, v := range row {
			h.Write([]byte(v))
			h.Write(sep)
		}
		h.Write(end)
	}
	return hex.EncodeToString(uint64ToBytes(h.Sum64()))
}
