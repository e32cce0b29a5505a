package pkg

import "blueprint"

func AssertNoError(err error) {
	if err != nil {
		blueprint.Logger.Error().Err(err).Msg("Error occurred that should not have occurred.")
		panic(err)
	}
}
