package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// CredentialResource 登录凭据
func CredentialResource() command.Resource {
	return command.Resource{
		Name:   Credential,
		Mapper: record.EntityMapper(parseCredential),
		FieldMap: map[string]string{
			"type":         "base",
			"login":        "credential_login",
			"password":     "lsc_password",
			"privateKey":   "private_key",
			"autoGenerate": "autogenerate",
			"targets":      "",
			"scanners":     "",
		},
	}
}

func parseCredential(r record.Record) record.Record {
	r = record.BoolFields("allowInsecure")(r)
	r = record.NestedList("targets", "target")(r)
	r = record.NestedList("scanners", "scanner")(r)
	if info, ok := r["certificateInfo"].(record.Record); ok {
		r["certificateInfo"] = record.DateFields("activationTime", "expirationTime")(info)
	}
	return r
}
