package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const service = "assembly/contexts/assembly/voting-engine"

func parts(path string) []string { return strings.Split(path, "/") }

func TestPlatformMustStayOnPortSide(t *testing.T) {
	check := platformChecker(parts("internal/platform/httpserver/server.go"))

	assert.Empty(t, check(service))
	assert.Empty(t, check(service+"/transport/http"))
	assert.Empty(t, check(service+"/ports"))
	assert.Empty(t, check("github.com/prometheus/client_golang/prometheus"))
	assert.Equal(t, "platform must not import use cases", check(service+"/application/commands"))
	assert.Equal(t, "platform must not import adapters", check(service+"/adapters/memory"))
	assert.Equal(t, "platform must not import process wiring", check("assembly/internal/app/bootstrap"))
}

func TestContextLayerRules(t *testing.T) {
	domain := contextChecker(parts("contexts/assembly/voting-engine/domain/entities/ballot.go"))
	assert.Empty(t, domain("time"))
	assert.Empty(t, domain(service+"/domain/errors"))
	assert.Equal(t, "domain import is outside explicit allowlist", domain(service+"/ports"))

	application := contextChecker(parts("contexts/assembly/voting-engine/application/commands/ballot.go"))
	assert.Empty(t, application("assembly/contracts/events/v1"))
	assert.Equal(t, "application must not import adapters", application(service+"/adapters/memory"))
	assert.Equal(t, "cross-module imports are forbidden", application("assembly/contexts/assembly/roll-call/ports"))

	inbound := contextChecker(parts("contexts/assembly/voting-engine/adapters/http/handler.go"))
	assert.Empty(t, inbound(service+"/application/commands"))

	outbound := contextChecker(parts("contexts/assembly/voting-engine/adapters/sqlite/store.go"))
	assert.Empty(t, outbound("assembly/internal/platform/db"))
	assert.Equal(t, "outbound adapters must not import use cases", outbound(service+"/application/commands"))

	transport := contextChecker(parts("contexts/assembly/voting-engine/transport/http/dto.go"))
	assert.Empty(t, transport("github.com/go-playground/validator/v10"))
	assert.Equal(t, "transport import is outside explicit allowlist", transport(service+"/application"))
}

func TestEntrypointsImportOnlyWiring(t *testing.T) {
	check := entrypointChecker(parts("cmd/api/main.go"))
	assert.Empty(t, check("assembly/internal/app/bootstrap"))
	assert.Empty(t, check("github.com/joho/godotenv"))
	assert.Equal(t, "entrypoints only import process wiring", check("assembly/internal/platform/config"))
}
