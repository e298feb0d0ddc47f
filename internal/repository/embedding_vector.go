package repository

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"topicfind-backend/internal/models"
)

// Vector adapts pgvector.Vector (which already implements the
// database/sql Scanner/Valuer contract in pgvector's bracketed text
// format) with a GORM column-type hint: the native "vector" type on
// Postgres, a plain TEXT column on SQLite, where the same bracketed
// text representation round-trips fine.
type Vector struct {
	pgvector.Vector
}

func NewVector(embedding models.Embedding) Vector {
	return Vector{Vector: pgvector.NewVector([]float32(embedding))}
}

func (v Vector) ToEmbedding() models.Embedding {
	return models.Embedding(v.Slice())
}

func (Vector) GormDataType() string {
	return "vector"
}

func (Vector) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "vector"
	}
	return "TEXT"
}
