package i18n

var frFRCatalog = &Catalog{
	locale: "fr-FR",
	messages: map[Code]string{
		CodeNotFound:          "La ressource {{.Entity}} demandée n'existe pas",
		CodeForbidden:         "Vous n'êtes pas autorisé à effectuer cette action",
		CodeInvalidTransition: "Un(e) {{.Entity}} ne peut pas passer de {{.From}} à {{.To}}",
		CodeConflict:          "Cette ressource {{.Entity}} existe déjà",
		CodeValidation:        "Valeur invalide pour {{.Field}}",
		CodeUnauthenticated:   "Authentification requise",
		CodeInternal:          "Une erreur est survenue, veuillez réessayer",
	},
}
