package term

import "github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"

// Переиспользуем интерфейс из dbmetrics для работы с БД (*dbmetrics.DB или транзакция)
type DBExecutor = dbmetrics.DBExecutor
