package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"medidoc/internal/model"
	"medidoc/internal/repository"
	repoMocks "medidoc/internal/repository/mocks"
	"medidoc/internal/storage"
	storeMocks "medidoc/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures enqueued document IDs.
type recordingDispatcher struct {
	ids []string
}

func (d *recordingDispatcher) Enqueue(documentID string) {
	d.ids = append(d.ids, documentID)
}

func newTestDocumentService(
	mStore *storeMocks.MockStorage,
	mDocs *repoMocks.MockDocumentRepository,
	mEx *repoMocks.MockExtractionRepository,
	mCorr *repoMocks.MockFieldCorrectionRepository,
	disp Dispatcher,
) DocumentService {
	return NewDocumentService(mStore, mDocs, mEx, mCorr, disp)
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path enqueues after create", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)
		disp := &recordingDispatcher{}

		r := strings.NewReader("%PDF-fake")
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
		}), r, mock.AnythingOfType("storage.PutObjectOptions")).
			Return(func(_ context.Context, key string, _ io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}
			}, nil)
		stored := &model.Document{ID: "doc-42", Status: model.StatusUploaded}
		mDocs.On("Create", ctx, mock.AnythingOfType("*model.Document")).
			Return(stored, nil).
			Run(func(args mock.Arguments) {
				doc := args.Get(1).(*model.Document)
				assert.Equal(t, model.StatusUploaded, doc.Status)
				assert.Equal(t, "facture.pdf", doc.OriginalFilename)
				require.NotNil(t, doc.DocType)
				assert.Equal(t, "facture", *doc.DocType)
			})

		svc := newTestDocumentService(mStore, mDocs, nil, nil, disp)

		doc, err := svc.Upload(ctx, r, "facture.pdf", "application/pdf", 9, strPtr("facture"))
		require.NoError(t, err)
		assert.Equal(t, "doc-42", doc.ID)
		assert.Equal(t, []string{"doc-42"}, disp.ids)

		mStore.AssertExpectations(t)
		mDocs.AssertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		svc := newTestDocumentService(new(storeMocks.MockStorage), new(repoMocks.MockDocumentRepository), nil, nil, nil)
		_, err := svc.Upload(ctx, nil, "x.pdf", "application/pdf", 1, nil)
		assert.ErrorIs(t, err, ErrReaderNil)
	})

	t.Run("db failure rolls back storage", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)
		disp := &recordingDispatcher{}

		r := strings.NewReader("x")
		mStore.On("Put", ctx, mock.AnythingOfType("string"), r, mock.AnythingOfType("storage.PutObjectOptions")).
			Return(storage.ObjectInfo{Key: "documents/2025/03/abc.pdf", Size: 1}, nil)
		mDocs.On("Create", ctx, mock.AnythingOfType("*model.Document")).
			Return(nil, errors.New("db down"))
		mStore.On("Delete", ctx, mock.AnythingOfType("string")).Return(nil)

		svc := newTestDocumentService(mStore, mDocs, nil, nil, disp)

		_, err := svc.Upload(ctx, r, "facture.pdf", "application/pdf", 1, nil)
		assert.ErrorContains(t, err, "db save failed")
		assert.Empty(t, disp.ids, "failed uploads must not be enqueued")
		mStore.AssertCalled(t, "Delete", ctx, mock.AnythingOfType("string"))
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("id required", func(t *testing.T) {
		svc := newTestDocumentService(nil, new(repoMocks.MockDocumentRepository), nil, nil, nil)
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mDocs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		svc := newTestDocumentService(nil, mDocs, nil, nil, nil)
		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	mDocs := new(repoMocks.MockDocumentRepository)
	mDocs.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "a"}}, Total: 1}, nil)

	svc := newTestDocumentService(nil, mDocs, nil, nil, nil)

	// Invalid paging falls back to defaults.
	res, err := svc.List(ctx, -1, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
}

func TestDocumentService_Detail(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", Status: model.StatusProcessed}

	t.Run("with extraction and corrections", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mEx := new(repoMocks.MockExtractionRepository)
		mCorr := new(repoMocks.MockFieldCorrectionRepository)

		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mEx.On("Latest", ctx, "doc-1").Return(&model.Extraction{
			ID:         "ex-1",
			DocumentID: "doc-1",
			Version:    2,
			Result: model.ExtractionResult{
				Fields:     model.DocumentFields{ProviderName: strPtr("Clinique du Parc")},
				Confidence: map[string]float64{"provider_name": 0.93},
				Warnings:   []string{},
			},
		}, nil)
		mCorr.On("ListByDocument", ctx, "doc-1").Return([]model.FieldCorrection{
			{ID: "fc-1", DocumentID: "doc-1", FieldName: model.FieldProviderName},
		}, nil)

		svc := newTestDocumentService(nil, mDocs, mEx, mCorr, nil)

		detail, err := svc.Detail(ctx, "doc-1")
		require.NoError(t, err)
		require.NotNil(t, detail.LatestExtraction)
		assert.Equal(t, 2, detail.LatestExtraction.Version)
		assert.Equal(t, "Clinique du Parc", *detail.LatestExtraction.Fields.ProviderName)
		require.Len(t, detail.Corrections, 1)
	})

	t.Run("no extraction yet", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mEx := new(repoMocks.MockExtractionRepository)
		mCorr := new(repoMocks.MockFieldCorrectionRepository)

		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mEx.On("Latest", ctx, "doc-1").Return(nil, sql.ErrNoRows)
		mCorr.On("ListByDocument", ctx, "doc-1").Return([]model.FieldCorrection{}, nil)

		svc := newTestDocumentService(nil, mDocs, mEx, mCorr, nil)

		detail, err := svc.Detail(ctx, "doc-1")
		require.NoError(t, err)
		assert.Nil(t, detail.LatestExtraction)
		assert.Empty(t, detail.Corrections)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", StoragePath: "documents/2025/03/abc.pdf"}

	t.Run("removes storage then row", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)

		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mStore.On("Delete", ctx, doc.StoragePath).Return(nil)
		mDocs.On("Delete", ctx, "doc-1").Return(nil)

		svc := newTestDocumentService(mStore, mDocs, nil, nil, nil)
		assert.NoError(t, svc.Delete(ctx, "doc-1"))
		mStore.AssertExpectations(t)
		mDocs.AssertExpectations(t)
	})

	t.Run("keeps row when storage delete fails", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mDocs := new(repoMocks.MockDocumentRepository)

		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mStore.On("Delete", ctx, doc.StoragePath).Return(errors.New("minio down"))

		svc := newTestDocumentService(mStore, mDocs, nil, nil, nil)
		err := svc.Delete(ctx, "doc-1")
		assert.ErrorContains(t, err, "delete storage")
		mDocs.AssertNotCalled(t, "Delete", ctx, "doc-1")
	})
}

func TestDocumentService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", StoragePath: "documents/2025/03/abc.pdf"}

	mStore := new(storeMocks.MockStorage)
	mDocs := new(repoMocks.MockDocumentRepository)

	mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
	mStore.On("PresignGet", ctx, doc.StoragePath, 15*time.Minute).
		Return("https://minio.local/presigned", nil)

	svc := newTestDocumentService(mStore, mDocs, nil, nil, nil)

	url, err := svc.DownloadURL(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/presigned", url)
}
