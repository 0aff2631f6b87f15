/*
Copyright © 2020 the gemini3d-go authors.
This file is part of gemini3d-go.

gemini3d-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gemini3d-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gemini3d-go.  If not, see <http://www.gnu.org/licenses/>.
*/


// Command gemini3d reads the grids and output of the GEMINI ionospheric
// model and prepares its MSIS neutral atmosphere inputs.
package main

import (
	"fmt"
	"os"

	"github.com/gemini3d/gemini3d-go/gemini3dutil"
)

func main() {
	if err := gemini3dutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
