/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log"
	"os"

	"github.com/p2eengineering/kalp-presale-contract/presale"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logger, err := newLogger(os.Getenv("PRESALE_LOG_LEVEL"))
	if err != nil {
		log.Panicf("Error creating logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	_ = zap.ReplaceGlobals(logger)

	contract := kalpsdk.Contract{IsPayableContract: false}
	contract.Logger = kalpsdk.NewLogger()
	presaleChaincode, err := kalpsdk.NewChaincode(&presale.SmartContract{Contract: contract})
	if err != nil {
		log.Panicf("Error creating presale chaincode: %v", err)
	}

	if err := presaleChaincode.Start(); err != nil {
		log.Panicf("Error starting presale chaincode: %v", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return lcfg.Build()
}
