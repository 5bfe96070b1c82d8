/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"log"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/textrace/traceability-chaincode/internal/config"
	"github.com/textrace/traceability-chaincode/internal/engine"
	"github.com/textrace/traceability-chaincode/internal/logger"
	"github.com/textrace/traceability-chaincode/internal/metrics"
)

const chaincodeTitle = "Textile traceability chaincode"

func newChaincode(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) (*contractapi.ContractChaincode, error) {
	eng := engine.New(engine.WithLogger(log), engine.WithMetrics(reg))
	cc, err := contractapi.NewChaincode(newContract(eng, log, cfg.Chaincode.Version))
	if err != nil {
		return nil, err
	}
	cc.Info.Title = chaincodeTitle
	cc.Info.Version = cfg.Chaincode.Version
	return cc, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled() {
		reg = metrics.NewRegistry()
		srv := reg.NewServer(chaincodeTitle)
		go func() {
			zapLogger.Info("metrics listening", zap.String("address", cfg.Metrics.Address))
			if err := srv.ListenAndServe(cfg.Metrics.Address); err != nil {
				zapLogger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Metrics.ShutdownTimeout)
			defer cancel()
			if err := srv.ShutdownWithContext(ctx); err != nil {
				zapLogger.Warn("metrics shutdown", zap.Error(err))
			}
		}()
	}

	chaincode, err := newChaincode(cfg, zapLogger, reg)
	if err != nil {
		zapLogger.Error("could not create chaincode", zap.Error(err))
		return
	}

	if cfg.Chaincode.External() {
		server := &shim.ChaincodeServer{
			CCID:    cfg.Chaincode.ID,
			Address: cfg.Chaincode.ServerAddress,
			CC:      chaincode,
			TLSProps: shim.TLSProperties{
				Disabled: cfg.Chaincode.TLSDisabled,
			},
		}
		zapLogger.Info("starting chaincode server",
			zap.String("ccid", cfg.Chaincode.ID),
			zap.String("address", cfg.Chaincode.ServerAddress),
		)
		err = server.Start()
	} else {
		err = chaincode.Start()
	}
	if err != nil {
		zapLogger.Error("chaincode stopped", zap.Error(err))
	}
}
