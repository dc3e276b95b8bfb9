package http

import (
	"io"
	"mime"
	"net/http"
	"path"

	"conti/internal/log"
	"conti/internal/receipts"
)

// receiptFormMemory is how much of a multipart upload stays in memory before
// spilling to a temp file.
const receiptFormMemory = 1 << 20

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePageParams(r.URL.Query())
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	page, err := s.ledger.ListTransactions(r.Context(), ownerOf(r), params.Page, params.PageSize)
	if err != nil {
		fail(w, r, log.OpList, err)
		return
	}
	ok(w, page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	t, err := s.ledger.CreateTransaction(r.Context(), req.transaction(ownerOf(r), 0))
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	created(w, t)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	ok(w, t)
}

// handleUpdateTransaction replaces the editable fields. The receipt is kept;
// it only changes through the receipt endpoint.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	owner := ownerOf(r)
	current, err := s.ledger.GetTransaction(r.Context(), owner, id)
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	t := req.transaction(owner, id)
	t.ReceiptKey = current.ReceiptKey
	updated, err := s.ledger.UpdateTransaction(r.Context(), t)
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	ok(w, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	owner := ownerOf(r)
	t, err := s.ledger.GetTransaction(r.Context(), owner, id)
	if err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), owner, id); err != nil {
		fail(w, r, log.OpDelete, err)
		return
	}
	s.dropReceipt(r, t.ReceiptKey)
	noContent(w)
}

// handleUploadReceipt stores the multipart "file" field and attaches it to
// the transaction, replacing any previous receipt.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		ErrorResponse(http.StatusNotImplemented, "receipts are not configured").Write(w)
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpUpload, err)
		return
	}
	owner := ownerOf(r)
	t, err := s.ledger.GetTransaction(r.Context(), owner, id)
	if err != nil {
		fail(w, r, log.OpUpload, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, receipts.MaxSize+receiptFormMemory)
	if err := r.ParseMultipartForm(receiptFormMemory); err != nil {
		if ErrorFor(err).statusCode == http.StatusRequestEntityTooLarge {
			fail(w, r, log.OpUpload, err)
			return
		}
		BadRequestError("expected a multipart form with a file field").Write(w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("missing file field").Write(w)
		return
	}
	defer file.Close()

	key, err := receipts.NewKey(t.Date, header.Filename)
	if err != nil {
		fail(w, r, log.OpUpload, err)
		return
	}
	if err := s.receipts.Put(r.Context(), key, file, header.Header.Get("Content-Type")); err != nil {
		fail(w, r, log.OpUpload, err)
		return
	}

	previous := t.ReceiptKey
	t.ReceiptKey = key
	updated, err := s.ledger.UpdateTransaction(r.Context(), t)
	if err != nil {
		s.dropReceipt(r, key)
		fail(w, r, log.OpUpload, err)
		return
	}
	s.dropReceipt(r, previous)

	logInfo(r.Context(), "Receipt attached",
		log.FieldTransactionID, id,
		"receipt", key,
		"size", header.Size)
	ok(w, updated)
}

func (s *Server) handleDownloadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		ErrorResponse(http.StatusNotImplemented, "receipts are not configured").Write(w)
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), ownerOf(r), id)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	if t.ReceiptKey == "" {
		NotFoundError("transaction has no receipt").Write(w)
		return
	}

	rc, err := s.receipts.Open(r.Context(), t.ReceiptKey)
	if err != nil {
		fail(w, r, log.OpRead, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(t.ReceiptKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": path.Base(t.ReceiptKey),
	}))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Receipt download interrupted",
			log.FieldTransactionID, id,
			log.FieldError, err.Error())
	}
}

// dropReceipt deletes a stored receipt, best effort.
func (s *Server) dropReceipt(r *http.Request, key string) {
	if key == "" || s.receipts == nil {
		return
	}
	if err := s.receipts.Delete(r.Context(), key); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete receipt",
			"receipt", key,
			log.FieldError, err.Error())
	}
}
