package request

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/abdul-hamid-achik/formreq/packages/files"
	"github.com/abdul-hamid-achik/formreq/packages/transport"
)

// Field is one form name/value pair.
type Field struct {
	Name  string
	Value string
}

// Fields keeps insertion order, which is the serialized order.
type Fields []Field

// QueryString joins the fields as name=value pairs separated by "&".
// Names and values are used as given, without percent-encoding.
func (f Fields) QueryString() string {
	var sb strings.Builder
	for i, field := range f {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(field.Name)
		sb.WriteByte('=')
		sb.WriteString(field.Value)
	}
	return sb.String()
}

// FileField is a file attached under a form field name.
type FileField struct {
	Name string
	File files.File
}

// BuildMultipartBody creates a multipart form data body from the fields,
// followed by the file part when file is not nil.
func BuildMultipartBody(fields Fields, file *FileField) (*transport.Payload, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, err
		}
	}

	if file != nil && file.File != nil {
		part, err := writer.CreateFormFile(file.Name, file.File.Name())
		if err != nil {
			return nil, err
		}

		rc, err := file.File.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file.File.Name(), err)
		}
		_, err = io.Copy(part, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &transport.Payload{
		Reader:      body,
		ContentType: writer.FormDataContentType(),
		Size:        int64(body.Len()),
	}, nil
}
