package rbac

const (
	RoleProdutor     = "produtor"
	RoleAgronomo     = "agronomo"
	RoleGestor       = "gestor"
	RoleVisualizador = "visualizador"
)

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// SelfServiceRole reports whether anyone may sign up with role. Elevated roles are
// granted by a gestor through bulk registration.
func SelfServiceRole(role string) bool {
	return role == RoleProdutor || role == RoleVisualizador
}

var readOnly = []string{
	"dashboard:view",
	"weather:view",
	"crops:view",
	"scenario:view",
	"soil:view",
	"fields:view",
	"inputs:view",
	"prices:view",
	"reports:view",
	"user:self",
}

// RolePermissions: visualizador reads, produtor runs scenarios on their own farm,
// agronomo also manages agronomic data and uploads, gestor has everything.
var RolePermissions = map[string][]string{
	RoleVisualizador: readOnly,
	RoleProdutor: append(append([]string{}, readOnly...),
		"scenario:create",
		"scenario:evaluate",
		"scenario:montecarlo",
		"crops:simulate",
		"fields:create",
		"inputs:analyze",
		"reports:create",
	),
	RoleAgronomo: append(append([]string{}, readOnly...),
		"scenario:*",
		"crops:simulate",
		"fields:*",
		"soil:create",
		"inputs:*",
		"reports:create",
		"etl:*",
	),
	RoleGestor: {
		"*",
	},
}
