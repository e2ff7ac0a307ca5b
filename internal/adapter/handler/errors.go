package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/validation"
)

const (
	msgTimeout      = "tempo de espera esgotado"
	msgUnavailable  = "serviço temporariamente indisponível"
	msgInternal     = "não foi possível concluir a operação"
	msgInvalidInput = "dados inválidos"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

// httpError maps the domain error taxonomy onto a status code and a
// customer-safe body. Store failure details never leave the process.
func httpError(err error) (int, ErrorResponse) {
	var ve *domain.ValidationError
	var ce *domain.CouponError
	var pe *domain.PersistenceError

	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgInvalidInput, Fields: ve.Fields}
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: msgInvalidInput, Fields: map[string]string{"coupon_code": validation.CouponMessage(ce)}}
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "status desconhecido", Fields: map[string]string{"status": "use Recebido, Em Preparo ou Pronto"}}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "não encontrado"}
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, ErrorResponse{Error: msgTimeout, Retryable: true}
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable, Retryable: true}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: "não autenticado"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "não autorizado"}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, ErrorResponse{Error: "pedido já enviado"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, ErrorResponse{Error: "mudança de status não permitida"}
	case errors.Is(err, domain.ErrStoreClosed):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "a loja não está aceitando pedidos no momento"}
	case errors.As(err, &pe):
		return http.StatusInternalServerError, ErrorResponse{Error: msgInternal}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: msgInternal}
	}
}

// grpcError maps the same taxonomy onto gRPC status codes.
func grpcError(err error) error {
	if err == nil {
		return nil
	}
	code, body := httpError(err)

	var c codes.Code
	switch code {
	case http.StatusUnprocessableEntity:
		c = codes.InvalidArgument
	case http.StatusNotFound:
		c = codes.NotFound
	case http.StatusGatewayTimeout:
		c = codes.DeadlineExceeded
	case http.StatusServiceUnavailable:
		c = codes.Unavailable
	case http.StatusUnauthorized:
		c = codes.Unauthenticated
	case http.StatusForbidden:
		c = codes.PermissionDenied
	case http.StatusConflict:
		c = codes.AlreadyExists
		if errors.Is(err, domain.ErrInvalidTransition) {
			c = codes.FailedPrecondition
		}
	default:
		c = codes.Internal
	}

	if len(body.Fields) == 0 {
		return status.Error(c, body.Error)
	}
	return status.Error(c, (&domain.ValidationError{Fields: body.Fields}).Error())
}
