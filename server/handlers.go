package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AntonStoeckl/library-circulation-go/lending"
	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
	"github.com/AntonStoeckl/library-circulation-go/store"
)

// Error messages sent in StatusResponse.Error.
const (
	MsgInvalidJSON        = "Invalid JSON format"
	MsgInvalidBookData    = "Invalid book data"
	MsgInvalidIssueData   = "Invalid issue data"
	MsgInvalidBookID      = "Invalid book ID"
	MsgInvalidRequest     = "Invalid request"
	MsgBookIDExists       = "Book ID already exists"
	MsgBookNotFound       = "Book not found"
	MsgBookAlreadyIssued  = "Book already issued"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidOldPassword = "Invalid old password"
	MsgCredentialsChanged = "Credentials changed concurrently, try again"
	MsgInternal           = "Internal server error"
)

const logMsgStoreFailed = "http: store operation failed"

func (s *Server) listBooks(c *gin.Context) {
	books, err := s.store.ListBooks(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}

	dtos := make([]remote.BookDTO, 0, len(books))
	for _, book := range books {
		dtos = append(dtos, remote.BookToDTO(book))
	}

	c.JSON(http.StatusOK, dtos)
}

func (s *Server) listLoans(c *gin.Context) {
	loans, err := s.store.ListLoans(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}

	dtos := make([]remote.LoanDTO, 0, len(loans))
	for _, loan := range loans {
		dtos = append(dtos, remote.LoanToDTO(loan))
	}

	c.JSON(http.StatusOK, dtos)
}

func (s *Server) addBook(c *gin.Context) {
	var req remote.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	book := lending.NewBook(req.ID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Author))
	if book.ID <= 0 || book.Title == "" || book.Author == "" {
		respond(c, http.StatusBadRequest, MsgInvalidBookData)
		return
	}

	err := s.store.AddBook(c.Request.Context(), book)

	switch {
	case err == nil:
		respond(c, http.StatusCreated, "")
	case errors.Is(err, lending.ErrDuplicateBookID):
		respond(c, http.StatusConflict, MsgBookIDExists)
	default:
		s.internalError(c, err)
	}
}

func (s *Server) issueBook(c *gin.Context) {
	var req remote.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	name := strings.TrimSpace(req.StudentName)
	if req.BookID <= 0 || name == "" {
		respond(c, http.StatusBadRequest, MsgInvalidIssueData)
		return
	}

	_, err := s.store.IssueBook(c.Request.Context(), req.BookID, name, lending.NormalizeLoanDays(req.Days), s.today())

	switch {
	case err == nil:
		respond(c, http.StatusOK, "")
	case errors.Is(err, lending.ErrNotFound):
		respond(c, http.StatusNotFound, MsgBookNotFound)
	case errors.Is(err, lending.ErrAlreadyIssued):
		respond(c, http.StatusConflict, MsgBookAlreadyIssued)
	default:
		s.internalError(c, err)
	}
}

func (s *Server) returnBook(c *gin.Context) {
	var req remote.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	_, err := s.store.ReturnBook(c.Request.Context(), req.BookID)

	switch {
	case err == nil:
		respond(c, http.StatusOK, "")
	case errors.Is(err, lending.ErrNoSuchLoan):
		respond(c, http.StatusNotFound, MsgBookNotFound)
	default:
		s.internalError(c, err)
	}
}

func (s *Server) deleteBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidBookID)
		return
	}

	err = s.store.DeleteBook(c.Request.Context(), id)

	switch {
	case err == nil:
		respond(c, http.StatusOK, "")
	case errors.Is(err, lending.ErrNotFound):
		respond(c, http.StatusNotFound, MsgBookNotFound)
	default:
		s.internalError(c, err)
	}
}

func (s *Server) login(c *gin.Context) {
	var req remote.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		respond(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	credentials, err := s.store.LoadCredentials(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}

	if err = credentials.Authenticate(req.Username, req.Password); err != nil {
		respond(c, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	respond(c, http.StatusOK, "")
}

func (s *Server) resetPassword(c *gin.Context) {
	var req remote.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	next, err := store.NewCredentialsWithCost(strings.TrimSpace(req.NewUsername), req.NewPassword, s.bcryptCost)
	if err != nil {
		respond(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	current, err := s.store.LoadCredentials(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}

	if !current.CheckPassword(req.OldPassword) {
		respond(c, http.StatusUnauthorized, MsgInvalidOldPassword)
		return
	}

	err = s.store.SwapCredentials(c.Request.Context(), current, next)

	switch {
	case err == nil:
		respond(c, http.StatusOK, "")
	case errors.Is(err, store.ErrCredentialsChanged):
		respond(c, http.StatusConflict, MsgCredentialsChanged)
	default:
		s.internalError(c, err)
	}
}

func respond(c *gin.Context, status int, message string) {
	c.JSON(status, remote.StatusResponse{
		Success: status < http.StatusBadRequest,
		Error:   message,
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	if s.logger != nil {
		s.logger.Error(logMsgStoreFailed,
			logAttrMethod, c.Request.Method,
			logAttrPath, c.FullPath(),
			logAttrError, err.Error(),
		)
	}

	respond(c, http.StatusInternalServerError, MsgInternal)
}
