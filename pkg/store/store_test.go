package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"policy-advisor/pkg/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Flow{}, &model.Policy{}, &model.Version{}))
	return db
}

func sampleFlow(srcNS, dstNS string, port int, ts time.Time) model.Flow {
	return model.Flow{
		Timestamp:            ts,
		SourceNamespace:      srcNS,
		SourcePod:            srcNS + "-pod",
		SourceLabels:         model.Labels{"app": srcNS},
		DestinationNamespace: dstNS,
		DestinationPod:       dstNS + "-pod",
		DestinationLabels:    model.Labels{"app": dstNS},
		DestinationPort:      port,
		Protocol:             "TCP",
	}
}
