package wire

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-manager/internal/core/model"
	"library-manager/pkg/util"
)

func TestBookRoundTrip(t *testing.T) {
	published := model.NewDate(2008, time.August, 1)
	in := model.Book{
		ID:            7,
		Title:         "Clean Code",
		Author:        "Robert C. Martin",
		ISBN:          util.GetPtr("9780132350884"),
		PublishedDate: util.GetPtr(published),
		Status:        model.StatusAvailable,
	}

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"publishedDate":"2008-08-01"`)

	var out model.Book
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, *in.ISBN, *out.ISBN)
	// the calendar date survives exactly, no zone drift
	assert.True(t, in.PublishedDate.Equal(out.PublishedDate.Time))
	assert.Equal(t, "2008-08-01", out.PublishedDate.String())
}

func TestEnvelopePayload_SuccessFalseMeansNoData(t *testing.T) {
	// success=false must hide the data even when the field is populated
	body := `{"success":false,"message":"nope","data":{"content":[{"id":1,"title":"X","author":"Y"}],"totalElements":1,"totalPages":1,"pageNumber":0,"pageSize":20},"timestamp":"2026-01-02T03:04:05Z"}`

	env, err := DecodeEnvelope[model.Page[model.Book]](strings.NewReader(body))
	require.NoError(t, err)

	_, ok := env.Payload()
	assert.False(t, ok)
}

func TestEnvelopePayload_AbsentData(t *testing.T) {
	body := `{"success":true,"message":"ok","timestamp":"2026-01-02T03:04:05Z"}`

	env, err := DecodeEnvelope[model.Page[model.Book]](strings.NewReader(body))
	require.NoError(t, err)

	_, ok := env.Payload()
	assert.False(t, ok)
}

func TestEnvelopeEncode_OmitsNilData(t *testing.T) {
	var buf bytes.Buffer
	data, err := Marshal(SuccessEmpty("Book Deleted Successfully"))
	require.NoError(t, err)
	buf.Write(data)

	assert.NotContains(t, buf.String(), `"data"`)
	assert.Contains(t, buf.String(), `"success":true`)
}

func TestUnmarshalStrict_RejectsUnknownFields(t *testing.T) {
	body := []byte(`{"title":"Clean Code","author":"Robert C. Martin","publisher":"Prentice Hall"}`)

	var b model.Book
	require.Error(t, UnmarshalStrict(body, &b))
	// the lenient codec keeps ignoring extras, e.g. for inter-version reads
	require.NoError(t, Unmarshal(body, &b))
	assert.Equal(t, "Clean Code", b.Title)
}

func TestDecodeError(t *testing.T) {
	body := `{"message":"Book Not Found!","error":"Not Found","statusCode":404}`

	eb, err := DecodeError(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 404, eb.StatusCode)
	assert.Equal(t, "Not Found", eb.Error)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	_, err := DecodeEnvelope[model.Book](strings.NewReader(`{"success":`))
	require.Error(t, err)
}
