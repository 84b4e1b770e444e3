package appointment

import "github.com/fixwellinc/household-services-platform-sub009/pkg/txmanager"

// DBExecutor исполнитель запросов (*sql.DB или *sql.Tx)
type DBExecutor = txmanager.DBExecutor
