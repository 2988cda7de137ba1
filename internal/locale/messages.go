package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	MsgBadRequest        = "bad_request"
	MsgInvalidCreds      = "invalid_credentials"
	MsgInvalidToken      = "invalid_token"
	MsgInvalidRefresh    = "invalid_refresh"
	MsgEmailTaken        = "email_taken"
	MsgAccessDenied      = "access_denied"
	MsgRateLimited       = "rate_limited"
	MsgNotFound          = "not_found"
	MsgUserNotFound      = "user_not_found"
	MsgFieldNotFound     = "field_not_found"
	MsgStationNotFound   = "station_not_found"
	MsgScenarioNotFound  = "scenario_not_found"
	MsgReportNotFound    = "report_not_found"
	MsgReportNotReady    = "report_not_ready"
	MsgWrongPassword     = "wrong_password"
	MsgPricesUnavailable = "prices_unavailable"
	MsgConflict          = "conflict"
	MsgBusy              = "busy"
	MsgInternal          = "internal_error"
	MsgAPIRunning        = "api_running"
)

var messages = map[string][3]string{ // pt-BR, en-US, es
	MsgBadRequest:        {"Requisição inválida", "Invalid request", "Solicitud inválida"},
	MsgInvalidCreds:      {"Credenciais inválidas", "Invalid credentials", "Credenciales inválidas"},
	MsgInvalidToken:      {"Token inválido", "Invalid token", "Token inválido"},
	MsgInvalidRefresh:    {"Refresh inválido", "Invalid refresh token", "Token de actualización inválido"},
	MsgEmailTaken:        {"E-mail já cadastrado", "E-mail already registered", "Correo ya registrado"},
	MsgAccessDenied:      {"Acesso negado", "Access denied", "Acceso denegado"},
	MsgRateLimited:       {"Limite de requisições excedido", "Rate limit exceeded", "Límite de solicitudes excedido"},
	MsgNotFound:          {"Recurso não encontrado", "Resource not found", "Recurso no encontrado"},
	MsgUserNotFound:      {"Usuário não encontrado", "User not found", "Usuario no encontrado"},
	MsgFieldNotFound:     {"Talhão não encontrado", "Field not found", "Parcela no encontrada"},
	MsgStationNotFound:   {"Estação não encontrada", "Station not found", "Estación no encontrada"},
	MsgScenarioNotFound:  {"Cenário não encontrado", "Scenario not found", "Escenario no encontrado"},
	MsgReportNotFound:    {"Relatório não encontrado", "Report not found", "Informe no encontrado"},
	MsgReportNotReady:    {"Relatório ainda em processamento", "Report still processing", "Informe aún en proceso"},
	MsgWrongPassword:     {"Senha atual incorreta", "Incorrect current password", "Contraseña actual incorrecta"},
	MsgPricesUnavailable: {"Serviço de preços temporariamente indisponível", "Price service temporarily unavailable", "Servicio de precios temporalmente no disponible"},
	MsgConflict:          {"Conflito com o estado atual", "Conflicts with current state", "Conflicto con el estado actual"},
	MsgBusy:              {"Serviço ocupado, tente novamente", "Service busy, try again", "Servicio ocupado, inténtelo de nuevo"},
	MsgInternal:          {"Erro interno", "Internal error", "Error interno"},
	MsgAPIRunning:        {"SIAD Agro API operacional", "SIAD Agro API running", "SIAD Agro API operativa"},
}

var cat = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.BrazilianPortuguese))
	for key, tr := range messages {
		for i, tag := range []language.Tag{language.BrazilianPortuguese, language.AmericanEnglish, language.Spanish} {
			if err := b.SetString(tag, key, tr[i]); err != nil {
				panic(err)
			}
		}
	}
	return b
}()
