package render

import (
	"errors"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// User-facing texts shared by every command.
const (
	TitleError          = "❌ Erro"
	TitleUnavailable    = "⚠️ Serviço indisponível"
	MsgInvalidRequest   = "Requisição inválida."
	MsgUnavailable      = "Serviço indisponível, tente novamente mais tarde."
	MsgUnexpected       = "Ocorreu um erro inesperado. Tente novamente mais tarde."
	MsgUnexpectedReply  = "O serviço respondeu em um formato inesperado."
	MsgForbidden        = "Apenas quem abriu esta interação pode usá-la."
	MsgExpired          = "Esta interação expirou. Execute o comando novamente."
	MsgAlreadyResolved  = "Esta interação já foi concluída."
	MsgRateLimited      = "Você está enviando comandos rápido demais. Aguarde alguns segundos."
	MsgUnknownCommand   = "Comando desconhecido. Envie /ajuda para ver a lista de comandos."
	MsgSessionNotFound  = "Interação não encontrada. Execute o comando novamente."
	MsgInteractionEnded = "🗑️ Mensagem fechada."
)

// Context carries what the renderer needs besides the result itself.
type Context struct {
	// Title used for the rendered message. Defaults per outcome when empty.
	Title string
	// SuccessBody is shown for a successful result without a domain value.
	SuccessBody string
}

// FromResult renders an API result. Successful results render SuccessBody;
// client errors surface the backend message verbatim (or a generic
// "invalid request") and are not retriable; server errors and transport
// failures always render the generic retry message.
func FromResult(res apiclient.Result, rc Context) Message {
	switch res.Kind {
	case apiclient.KindSuccess:
		title := rc.Title
		if title == "" {
			title = "✅ Sucesso"
		}
		return Success(title, rc.SuccessBody)
	case apiclient.KindClientError:
		return clientError(rc.Title, res.Message())
	default:
		return serverError(rc.Title)
	}
}

// FromError renders any error produced by a command or engine.
func FromError(err error) Message {
	if err == nil {
		return Message{}
	}

	var backendErr *domerrors.BackendError
	var validationErr *domerrors.ValidationError
	var decodeErr *domerrors.DecodeError
	var wrappedErr *domerrors.WrappedError

	switch {
	case errors.As(err, &validationErr):
		if msg := domerrors.GetUserMessage(err); msg != "" {
			return Error(TitleError, msg)
		}
		return Error(TitleError, validationErr.Message)
	case domerrors.IsForbidden(err):
		return Warning("🔒 Acesso negado", MsgForbidden)
	case domerrors.IsAlreadyResolved(err):
		return Info("ℹ️ Concluído", MsgAlreadyResolved)
	case domerrors.IsExpired(err):
		return Warning("⌛ Expirado", MsgExpired)
	case domerrors.IsNotFound(err):
		return Warning("⌛ Expirado", MsgSessionNotFound)
	case domerrors.IsRateLimitExceeded(err):
		return Warning("⏳ Calma aí", MsgRateLimited)
	case errors.Is(err, domerrors.ErrUnknownCommand):
		return Info("🤔 Comando desconhecido", MsgUnknownCommand)
	case errors.As(err, &wrappedErr) && wrappedErr.UserMessage != "":
		return Error(TitleError, wrappedErr.UserMessage)
	case errors.As(err, &decodeErr):
		return Error(TitleError, MsgUnexpectedReply)
	case errors.As(err, &backendErr):
		if backendErr.IsClientError() {
			msg := backendErr.Message
			if msg == "" {
				msg = domerrors.GetUserMessage(err)
			}
			return clientError("", msg)
		}
		return serverError("")
	}

	if msg := domerrors.GetUserMessage(err); msg != "" {
		return Error(TitleError, msg)
	}
	m := Error(TitleError, MsgUnexpected)
	m.Retriable = true
	return m
}

func clientError(title, msg string) Message {
	if title == "" {
		title = TitleError
	}
	if msg == "" {
		msg = MsgInvalidRequest
	}
	return Error(title, msg)
}

func serverError(title string) Message {
	if title == "" {
		title = TitleUnavailable
	}
	m := Error(title, MsgUnavailable)
	m.Retriable = true
	return m
}

// Dismissed renders the notice sent when an interactive message is closed.
func Dismissed() Message {
	m := Info("", MsgInteractionEnded)
	m.Dismiss = true
	return m
}
