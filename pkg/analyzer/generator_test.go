package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"policy-advisor/pkg/model"
	"policy-advisor/pkg/store"
)

func testGenerator(t *testing.T, engine []string) (*Generator, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Flow{}, &model.Policy{}, &model.Version{}))

	return &Generator{
		Flows:    store.NewFlowStore(db),
		Policies: store.NewPolicyStore(db),
		Engine:   NewRunner(engine),
	}, db
}

func seedFlow(t *testing.T, g *Generator, dstNS string) model.Flow {
	t.Helper()
	f, err := g.Flows.Insert(model.Flow{
		Timestamp:            time.Now(),
		SourceNamespace:      "frontend",
		DestinationNamespace: dstNS,
		DestinationPort:      8080,
		Protocol:             "TCP",
	})
	require.NoError(t, err)
	return f
}

var okEngine = []string{"sh", "-c", `cat >/dev/null; echo 'apiVersion: cilium.io/v2'`}

func TestGeneratePersistsPolicyWithFirstVersion(t *testing.T) {
	g, _ := testGenerator(t, okEngine)
	f1 := seedFlow(t, g, "backend")
	f2 := seedFlow(t, g, "backend")

	p, err := g.Generate(context.Background(), []string{f1.FlowID, f2.FlowID}, "net-policy-a")
	require.NoError(t, err)
	assert.Equal(t, "net-policy-a", p.PolicyName)
	assert.Equal(t, "backend", p.Namespace)
	assert.Equal(t, "apiVersion: cilium.io/v2", p.YAMLContent)

	versions, err := g.Policies.ListVersions(p.PolicyID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
}

func TestGenerateEmptyIDList(t *testing.T) {
	g, _ := testGenerator(t, okEngine)
	_, err := g.Generate(context.Background(), nil, "")
	var vErr *store.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestGenerateTotalMiss(t *testing.T) {
	g, db := testGenerator(t, okEngine)
	_, err := g.Generate(context.Background(), []string{"missing-1", "missing-2"}, "")
	require.ErrorIs(t, err, store.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Policy{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGeneratePartialResolutionProceeds(t *testing.T) {
	g, _ := testGenerator(t, okEngine)
	f := seedFlow(t, g, "backend")

	p, err := g.Generate(context.Background(), []string{f.FlowID, "missing"}, "")
	require.NoError(t, err)
	assert.Equal(t, "backend", p.Namespace)
}

func TestGenerateEngineFailureLeavesNothing(t *testing.T) {
	g, db := testGenerator(t, []string{"sh", "-c", "echo nope >&2; exit 1"})
	f := seedFlow(t, g, "backend")

	_, err := g.Generate(context.Background(), []string{f.FlowID}, "doomed")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)

	var policies, versions int64
	require.NoError(t, db.Model(&model.Policy{}).Count(&policies).Error)
	require.NoError(t, db.Model(&model.Version{}).Count(&versions).Error)
	assert.Zero(t, policies)
	assert.Zero(t, versions)
}

func TestGenerateTimeoutLeavesNothing(t *testing.T) {
	g, db := testGenerator(t, nil)
	g.Engine = &Runner{Command: []string{"sh", "-c", "sleep 30"}, Timeout: 200 * time.Millisecond}
	f := seedFlow(t, g, "backend")

	_, err := g.Generate(context.Background(), []string{f.FlowID}, "")
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	var policies int64
	require.NoError(t, db.Model(&model.Policy{}).Count(&policies).Error)
	assert.Zero(t, policies)
}
