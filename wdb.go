package ledgersync

import (
	"github.com/everFinance/ledgersync/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"os"
	"path"
)

const sqliteName = "ledger.db"

// Wdb archives every recorded transaction in a sql db, one row per
// (account, currency, txid).
type Wdb struct {
	Db *gorm.DB
}

func NewSqliteDb(dbDir string) *Wdb {
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		panic(err)
	}
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Silent),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success", "dir", dbDir)
	return &Wdb{Db: db}
}

func NewMysqlDb(dsn string) *Wdb {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.ArchivedTx{})
}

func (w *Wdb) ArchiveTxs(account string, txs []schema.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]schema.ArchivedTx, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, schema.ArchivedTx{
			Account:      account,
			CurrencyCode: tx.CurrencyCode,
			TxId:         tx.TxId,
			Date:         tx.Date,
			BlockHeight:  tx.BlockHeight,
			NativeAmount: tx.NativeAmount,
			NetworkFee:   tx.NetworkFee,
			Name:         tx.Metadata.Name,
			Notes:        tx.Metadata.Notes,
		})
	}
	// a rewritten transaction updates its row
	return w.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}, {Name: "currency_code"}, {Name: "tx_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"date", "block_height", "native_amount", "network_fee", "name", "notes"}),
	}).Create(&rows).Error
}

// GetArchivedTxs returns one page of a currency's transactions, newest first.
func (w *Wdb) GetArchivedTxs(account, currencyCode string, offset, limit int) ([]schema.ArchivedTx, error) {
	res := make([]schema.ArchivedTx, 0, limit)
	err := w.Db.Where("account = ? and currency_code = ?", account, currencyCode).
		Order("block_height desc, id desc").Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) CountTxs(account, currencyCode string) (int64, error) {
	var count int64
	err := w.Db.Model(&schema.ArchivedTx{}).Where("account = ? and currency_code = ?", account, currencyCode).Count(&count).Error
	return count, err
}

func (w *Wdb) Close() {
	sqlDB, err := w.Db.DB()
	if err != nil {
		log.Error("w.Db.DB()", "err", err)
		return
	}
	if err = sqlDB.Close(); err != nil {
		log.Error("sqlDB.Close()", "err", err)
	}
}
