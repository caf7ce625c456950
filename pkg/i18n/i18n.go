// Package i18n resolves the request language and renders the short
// human-readable messages carried in failure bodies.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyUnauthorized       = "auth.unauthorized"
	KeyForbidden          = "auth.forbidden"
	KeyInvalidCredentials = "auth.invalid_credentials"
	KeyTooManyAttempts    = "auth.too_many_attempts"
	KeyWeakPassword       = "auth.weak_password"
	KeyUserExists         = "auth.user_exists"
	KeyInvalidRequest     = "request.invalid"
	KeyNotFound           = "request.not_found"
	KeyMethodNotAllowed   = "request.method_not_allowed"
	KeyInternal           = "server.internal"
)

// supported lists the available locales; the first entry is the default.
var supported = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
	language.Spanish,
}

var (
	matcher = language.NewMatcher(supported)
	builder = newCatalog()
)

var translations = map[language.Tag]map[string]string{
	language.AmericanEnglish: {
		KeyUnauthorized:       "Full authentication is required to access this resource",
		KeyForbidden:          "Access to this resource is denied",
		KeyInvalidCredentials: "Invalid username or password",
		KeyTooManyAttempts:    "Too many login attempts, try again later",
		KeyWeakPassword:       "Password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and one of @$!%*?&",
		KeyUserExists:         "A user with this username or email already exists",
		KeyInvalidRequest:     "The request is invalid",
		KeyNotFound:           "The requested resource was not found",
		KeyMethodNotAllowed:   "The request method is not supported for this resource",
		KeyInternal:           "An unexpected error occurred",
	},
	language.BrazilianPortuguese: {
		KeyUnauthorized:       "É necessária autenticação completa para acessar este recurso",
		KeyForbidden:          "Acesso negado a este recurso",
		KeyInvalidCredentials: "Usuário ou senha inválidos",
		KeyTooManyAttempts:    "Muitas tentativas de login, tente novamente mais tarde",
		KeyWeakPassword:       "A senha deve ter pelo menos 8 caracteres e conter uma letra maiúscula, uma minúscula, um dígito e um de @$!%*?&",
		KeyUserExists:         "Já existe um usuário com este nome de usuário ou e-mail",
		KeyInvalidRequest:     "A requisição é inválida",
		KeyNotFound:           "O recurso solicitado não foi encontrado",
		KeyMethodNotAllowed:   "O método da requisição não é suportado por este recurso",
		KeyInternal:           "Ocorreu um erro inesperado",
	},
	language.Spanish: {
		KeyUnauthorized:       "Se requiere autenticación completa para acceder a este recurso",
		KeyForbidden:          "Acceso denegado a este recurso",
		KeyInvalidCredentials: "Usuario o contraseña no válidos",
		KeyTooManyAttempts:    "Demasiados intentos de inicio de sesión, inténtelo más tarde",
		KeyWeakPassword:       "La contraseña debe tener al menos 8 caracteres y contener una mayúscula, una minúscula, un dígito y uno de @$!%*?&",
		KeyUserExists:         "Ya existe un usuario con este nombre de usuario o correo electrónico",
		KeyInvalidRequest:     "La solicitud no es válida",
		KeyNotFound:           "No se encontró el recurso solicitado",
		KeyMethodNotAllowed:   "El método de la solicitud no es compatible con este recurso",
		KeyInternal:           "Se produjo un error inesperado",
	},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultTag()))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			// Messages contain no substitutions; escape the literal percent
			// sign so the printer does not read it as a verb.
			if err := b.SetString(tag, key, strings.ReplaceAll(msg, "%", "%%")); err != nil {
				panic("i18n: " + err.Error())
			}
		}
	}
	return b
}

// DefaultTag returns the language used when nothing better matches.
func DefaultTag() language.Tag {
	return supported[0]
}

// MatchTags maps the caller's preferences onto a supported locale.
func MatchTags(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultTag()
	}
	return supported[idx]
}

// ResolveTag picks the response language from the Accept-Language header.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return DefaultTag()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		return DefaultTag()
	}
	return MatchTags(tags...)
}

// Printer returns a message printer bound to the package catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(builder))
}

// Text renders key in the given language. Unknown keys are returned as-is.
func Text(tag language.Tag, key string) string {
	return Printer(tag).Sprintf(key)
}

// ForRequest renders key in the language negotiated for r.
func ForRequest(r *http.Request, key string) string {
	return Text(ResolveTag(r), key)
}
