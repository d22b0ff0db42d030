package document

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

// Document is the metadata of an uploaded file. The content lives in the FileStore at FilePath.
type Document struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SubjectID string    `json:"subjectId"`
	FileName  string    `json:"fileName"` // as uploaded
	FilePath  string    `json:"filePath"`
	FileType  string    `json:"fileType"` // MIME type
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

type NewDocument struct {
	SubjectID string `json:"subjectId" form:"subjectId" validate:"required"`
	FileName  string `json:"fileName" validate:"required,max=255"`
	FileType  string `json:"fileType"`
}

func (nd *NewDocument) Validate(validate *validator.Validate) error {
	nd.SubjectID = core.CleanString(nd.SubjectID)
	nd.FileName = core.CleanString(nd.FileName)
	if nd.FileType == "" {
		nd.FileType = defaultFileType
	}
	return validate.Struct(nd)
}
