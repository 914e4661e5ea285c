package store

import (
	"database/sql"

	"github.com/omnizone/hostd/internal/model"
)

func scanNetworkUsage(rows *sql.Rows) ([]model.NetworkUsage, error) {
	var out []model.NetworkUsage
	for rows.Next() {
		var u model.NetworkUsage
		if err := rows.Scan(&u.Host, &u.Link, &u.ScanTimestamp, &u.RBytes, &u.OBytes,
			&u.IPackets, &u.OPackets, &u.IErrors, &u.OErrors, &u.RBytesDelta, &u.OBytesDelta,
			&u.RxBps, &u.TxBps, &u.RxMbps, &u.TxMbps, &u.RxUtilizationPct, &u.TxUtilizationPct,
			&u.InterfaceSpeedMbps, &u.InterfaceClass, &u.TimeDeltaSeconds, &u.TruncationConfidence,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
