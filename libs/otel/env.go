package otelx

import "os"

var lookupEnv = os.LookupEnv
