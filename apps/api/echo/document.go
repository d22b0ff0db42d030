package echoapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/document"
)

var documentFormField = "document"

type documentApi struct {
	svc           *document.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerDocumentAPI(g *echo.Group, authed echo.MiddlewareFunc, api *documentApi) {
	dg := g.Group("/documents", authed)
	dg.POST("/upload", api.upload, middleware.BodyLimit(strconv.FormatInt(api.maxUploadSize, 10)))
	dg.GET("/subject/:subjectId", api.queryBySubject)

	og := dg.Group("/:id", ownedObject(api.svc.Get))
	og.GET("/download", api.download)
	og.DELETE("", api.destroy)
}

// upload expects a multipart form with the `document` file and its `subjectId`.
func (api *documentApi) upload(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile(documentFormField)
	if err != nil {
		if _, ok := errors.Cause(err).(*echo.HTTPError); ok {
			return errors.Wrap(err, "reading multipart form")
		}
		return core.NewValidationError(nil, core.FieldError{Field: documentFormField, Error: "this field is required"})
	}
	data := document.NewDocument{
		SubjectID: ctx.FormValue("subjectId"),
		FileName:  fh.Filename,
		FileType:  fh.Header.Get(echo.HeaderContentType),
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	doc, err := api.svc.Upload(ctx.Request().Context(), caller.UserID, data, src)
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *documentApi) queryBySubject(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	docs, err := api.svc.ListBySubject(ctx.Request().Context(), caller.UserID, ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *documentApi) download(ctx echo.Context) error {
	doc, err := contextObject[document.Document](ctx)
	if err != nil {
		return err
	}
	rc, err := api.svc.Open(doc)
	if err != nil {
		return errors.Wrap(err, "downloading document")
	}
	defer func() { _ = rc.Close() }()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	ctx.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(doc.Size, 10))
	return ctx.Stream(http.StatusOK, doc.FileType, rc)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	doc, err := contextObject[document.Document](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), doc); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Document deleted successfully."})
}
